package extraction

// BudgetCategories holds spending broken down into the eight fixed buckets
// every extraction is mapped onto. Pointers distinguish "not reported" (nil)
// from "reported as zero" (0) — the two must never be conflated.
type BudgetCategories struct {
	PublicSafety      *float64 `json:"public_safety"`
	Education         *float64 `json:"education"`
	HealthWelfare     *float64 `json:"health_welfare"`
	Infrastructure    *float64 `json:"infrastructure"`
	GeneralGovernment *float64 `json:"general_government"`
	ParksRecreation   *float64 `json:"parks_recreation"`
	DebtService       *float64 `json:"debt_service"`
	Other             *float64 `json:"other"`
}

// ExtractedBudgetData is the normalized output of one extraction attempt.
// It is constructed once by the normalizer and never mutated afterwards.
type ExtractedBudgetData struct {
	TotalRevenue     *float64         `json:"total_revenue"`
	TotalExpenditure *float64         `json:"total_expenditure"`
	Categories       BudgetCategories `json:"categories"`
	Confidence       float64          `json:"confidence"`
	Notes            *string          `json:"notes"`
	FiscalYear       *string          `json:"fiscal_year"`
}

// ExtractionResult is the uniform outcome of one attempt. Exactly one of
// Data/Error is populated depending on Success; ProcessingTimeMS is recorded
// regardless of outcome.
type ExtractionResult struct {
	Success          bool                 `json:"success"`
	Data             *ExtractedBudgetData `json:"data,omitempty"`
	Error            string               `json:"error,omitempty"`
	ProcessingTimeMS int64                `json:"processing_time_ms"`
}
