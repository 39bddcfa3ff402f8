package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
)

const (
	documentsTable     = "budget_documents"
	jurisdictionsTable = "jurisdictions"
)

// Repository is the single component permitted to mutate document extraction
// state. It holds a shared BigQuery client to avoid creating a new connection
// for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string

	// failureCooldown keeps documents failed within the window out of
	// selection so a persistently failing document is not retried on every
	// consecutive run.
	failureCooldown time.Duration
}

// NewRepository creates a Repository with a shared BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string, failureCooldown time.Duration) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:          client,
		projectID:       projectID,
		datasetID:       datasetID,
		failureCooldown: failureCooldown,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListPendingDocuments returns up to limit documents awaiting extraction,
// optionally scoped to one state. A document qualifies when its status is
// NULL or anything other than completed (failed documents self-heal on the
// next run), it has a source URL, and it is outside the failure cooldown.
func (r *Repository) ListPendingDocuments(ctx context.Context, state string, limit int) ([]*PendingDocument, error) {
	query := fmt.Sprintf(`
		SELECT
			d.document_id,
			d.jurisdiction_id,
			j.name AS jurisdiction_name,
			d.title,
			d.source_url
		FROM `+"`%s.%s.%s`"+` d
		JOIN `+"`%s.%s.%s`"+` j
			ON j.jurisdiction_id = d.jurisdiction_id
		WHERE d.source_url IS NOT NULL
			AND d.source_url != ''
			AND (d.extraction_status IS NULL OR d.extraction_status != @completed)
			AND (
				d.extraction_status IS NULL
				OR d.extraction_status != @failed
				OR d.extracted_at IS NULL
				OR d.extracted_at < TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL @cooldown_minutes MINUTE)
			)
			AND (@state = '' OR j.state_code = @state)
		ORDER BY d.document_id
		LIMIT @row_limit
	`, r.projectID, r.datasetID, documentsTable, r.projectID, r.datasetID, jurisdictionsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "completed", Value: StatusCompleted},
		{Name: "failed", Value: StatusFailed},
		{Name: "cooldown_minutes", Value: int64(r.failureCooldown.Minutes())},
		{Name: "state", Value: state},
		{Name: "row_limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPendingDocuments: reading query: %w", err)
	}

	var docs []*PendingDocument
	for {
		var row PendingDocument
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPendingDocuments: iterating: %w", err)
		}
		docs = append(docs, &row)
	}

	return docs, nil
}

// GetDocument retrieves a single full document row by ID. Returns nil when no
// document with the given ID exists.
func (r *Repository) GetDocument(ctx context.Context, documentID string) (*BudgetDocumentRow, error) {
	query := fmt.Sprintf(`
		SELECT
			document_id,
			jurisdiction_id,
			title,
			fiscal_year,
			source_url,
			extraction_status,
			extraction_confidence,
			total_revenue,
			total_expenditure,
			extracted_data,
			extracted_at,
			extraction_error
		FROM `+"`%s.%s.%s`"+`
		WHERE document_id = @document_id
		LIMIT 1
	`, r.projectID, r.datasetID, documentsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: reading query: %w", err)
	}

	var row BudgetDocumentRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetDocument: reading row: %w", err)
	}

	return &row, nil
}

// MarkExtractionCompleted performs the success terminal write: status, both
// totals, the full payload, confidence and timestamp are set in one atomic
// UPDATE, and any prior error is cleared.
func (r *Repository) MarkExtractionCompleted(ctx context.Context, documentID string, data *extraction.ExtractedBudgetData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("MarkExtractionCompleted: encoding payload: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET extraction_status = @status,
		    extraction_confidence = @confidence,
		    total_revenue = @total_revenue,
		    total_expenditure = @total_expenditure,
		    extracted_data = PARSE_JSON(@extracted_data),
		    extracted_at = @extracted_at,
		    extraction_error = NULL
		WHERE document_id = @document_id
	`, r.projectID, r.datasetID, documentsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusCompleted},
		{Name: "confidence", Value: data.Confidence},
		{Name: "total_revenue", Value: nullFloat(data.TotalRevenue)},
		{Name: "total_expenditure", Value: nullFloat(data.TotalExpenditure)},
		{Name: "extracted_data", Value: string(payload)},
		{Name: "extracted_at", Value: time.Now()},
		{Name: "document_id", Value: documentID},
	}

	return runUpdate(ctx, q, "MarkExtractionCompleted")
}

// MarkExtractionFailed performs the failure terminal write: status, error
// message and timestamp. Previously extracted numeric fields are left
// untouched; only a later successful attempt replaces them.
func (r *Repository) MarkExtractionFailed(ctx context.Context, documentID string, errMsg string) error {
	const maxLen = 2000
	if len(errMsg) > maxLen {
		errMsg = errMsg[:maxLen]
	}

	query := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET extraction_status = @status,
		    extraction_error = @extraction_error,
		    extracted_at = @extracted_at
		WHERE document_id = @document_id
	`, r.projectID, r.datasetID, documentsTable)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusFailed},
		{Name: "extraction_error", Value: errMsg},
		{Name: "extracted_at", Value: time.Now()},
		{Name: "document_id", Value: documentID},
	}

	return runUpdate(ctx, q, "MarkExtractionFailed")
}

func nullFloat(v *float64) bigquery.NullFloat64 {
	if v == nil {
		return bigquery.NullFloat64{Valid: false}
	}
	return bigquery.NullFloat64{Float64: *v, Valid: true}
}

func runUpdate(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running update query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}

	return nil
}
