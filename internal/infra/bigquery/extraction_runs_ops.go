package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
)

const extractionRunsTable = "extraction_runs"

// StartExtractionRun inserts a new extraction_runs row with status=running
// and returns the generated run_id.
func (r *Repository) StartExtractionRun(ctx context.Context, documentID, modelName string) (string, error) {
	runID := uuid.NewString()

	query := fmt.Sprintf(`
		INSERT `+"`%s.%s.%s`"+` (
			run_id,
			document_id,
			started_ts,
			model_name,
			status
		)
		VALUES (
			@run_id,
			@document_id,
			@started_ts,
			@model_name,
			@status
		)
	`, r.projectID, r.datasetID, extractionRunsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "model_name", Value: modelName},
		{Name: "status", Value: "running"},
	}

	if err := runUpdate(ctx, q, "StartExtractionRun"); err != nil {
		return "", err
	}

	return runID, nil
}

// FinishExtractionRun records the attempt outcome on its extraction_runs row.
// Run bookkeeping is awaited but non-fatal: callers log a returned error and
// continue, since the document's own terminal write is what matters.
func (r *Repository) FinishExtractionRun(ctx context.Context, runID string, result extraction.ExtractionResult) error {
	status := "completed"
	errMsg := ""
	if !result.Success {
		status = "failed"
		errMsg = result.Error
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	query := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message,
		    processing_ms = @processing_ms
		WHERE run_id = @run_id
	`, r.projectID, r.datasetID, extractionRunsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "processing_ms", Value: result.ProcessingTimeMS},
		{Name: "run_id", Value: runID},
	}

	return runUpdate(ctx, q, "FinishExtractionRun")
}
