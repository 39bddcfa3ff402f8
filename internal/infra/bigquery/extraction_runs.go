package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// ExtractionRunRow mirrors the extraction_runs table: one row per extraction
// attempt, kept as an audit trail alongside the document's terminal status.
type ExtractionRunRow struct {
	RunID      string `bigquery:"run_id"`
	DocumentID string `bigquery:"document_id"`

	StartedAt  time.Time              `bigquery:"started_ts"`
	FinishedAt bigquery.NullTimestamp `bigquery:"finished_ts"`

	ModelName string `bigquery:"model_name"` // e.g. gemini-2.5-flash

	Status       string `bigquery:"status"` // running / completed / failed
	ErrorMessage string `bigquery:"error_message"`

	ProcessingMS bigquery.NullInt64 `bigquery:"processing_ms"`
}
