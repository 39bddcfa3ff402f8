package bigquery

import (
	"cloud.google.com/go/bigquery"
)

// Extraction status values for budget_documents.extraction_status.
// A document starts with NULL/pending, and every attempt ends in exactly one
// terminal status. Failed documents stay re-selectable on the next batch run.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BudgetDocumentRow mirrors the budget_documents table.
type BudgetDocumentRow struct {
	DocumentID     string `bigquery:"document_id"`     // REQUIRED
	JurisdictionID string `bigquery:"jurisdiction_id"` // REQUIRED
	Title          string `bigquery:"title"`           // NULLABLE

	// FiscalYear is a free-text label, e.g. "FY2024".
	FiscalYear string `bigquery:"fiscal_year"` // NULLABLE

	SourceURL bigquery.NullString `bigquery:"source_url"` // NULLABLE

	ExtractionStatus     bigquery.NullString  `bigquery:"extraction_status"`     // NULLABLE
	ExtractionConfidence bigquery.NullFloat64 `bigquery:"extraction_confidence"` // NULLABLE

	TotalRevenue     bigquery.NullFloat64 `bigquery:"total_revenue"`     // NULLABLE
	TotalExpenditure bigquery.NullFloat64 `bigquery:"total_expenditure"` // NULLABLE

	ExtractedData   bigquery.NullJSON      `bigquery:"extracted_data"`   // NULLABLE
	ExtractedAt     bigquery.NullTimestamp `bigquery:"extracted_at"`     // NULLABLE
	ExtractionError bigquery.NullString    `bigquery:"extraction_error"` // NULLABLE
}

// JurisdictionRow mirrors the jurisdictions table.
type JurisdictionRow struct {
	JurisdictionID string `bigquery:"jurisdiction_id"` // REQUIRED
	Name           string `bigquery:"name"`            // REQUIRED
	StateCode      string `bigquery:"state_code"`      // REQUIRED, e.g. "CA"
}

// PendingDocument is the minimal projection the scheduler needs to drive an
// extraction: never the full record, to keep batch listing cheap.
type PendingDocument struct {
	DocumentID       string `bigquery:"document_id"`
	JurisdictionID   string `bigquery:"jurisdiction_id"`
	JurisdictionName string `bigquery:"jurisdiction_name"`
	Title            string `bigquery:"title"`
	SourceURL        string `bigquery:"source_url"`
}
