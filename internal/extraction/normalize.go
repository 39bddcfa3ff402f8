package extraction

import (
	"encoding/json"
	"strconv"
	"strings"
)

// parseModelOutput turns the model's raw text into a normalized
// ExtractedBudgetData. Only a top-level JSON parse failure is fatal for the
// attempt; malformed individual fields are coerced to null locally.
func parseModelOutput(raw string) (*ExtractedBudgetData, error) {
	clean := cleanModelJSON(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		// No regex salvage: a response that is not JSON is a failed attempt.
		return nil, &ParseError{RawLength: len(raw), Err: err}
	}

	data := &ExtractedBudgetData{
		TotalRevenue:     coerceAmount(parsed["total_revenue"]),
		TotalExpenditure: coerceAmount(parsed["total_expenditure"]),
		Confidence:       clampConfidence(parsed["confidence"]),
		Notes:            coerceString(parsed["notes"]),
		FiscalYear:       coerceString(parsed["fiscal_year"]),
	}

	if cats, ok := parsed["categories"].(map[string]interface{}); ok {
		data.Categories = BudgetCategories{
			PublicSafety:      coerceAmount(cats["public_safety"]),
			Education:         coerceAmount(cats["education"]),
			HealthWelfare:     coerceAmount(cats["health_welfare"]),
			Infrastructure:    coerceAmount(cats["infrastructure"]),
			GeneralGovernment: coerceAmount(cats["general_government"]),
			ParksRecreation:   coerceAmount(cats["parks_recreation"]),
			DebtService:       coerceAmount(cats["debt_service"]),
			Other:             coerceAmount(cats["other"]),
		}
	}

	return data, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction. Prompted-for output is raw JSON, but
// models sometimes wrap it anyway; that is tolerated, not treated as an error.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)

		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Extra safety: keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// coerceAmount permissively converts a JSON value into a dollar amount.
// Native numbers pass through; strings are accepted with currency punctuation
// ("$", ",") stripped; anything else is null. It never errors — a malformed
// amount means "not reported", not a failed attempt.
func coerceAmount(v interface{}) *float64 {
	switch val := v.(type) {
	case float64:
		f := val
		return &f
	case string:
		s := strings.TrimSpace(val)
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// clampConfidence clamps the model-reported confidence into [0,1].
// Absent or non-numeric values are treated as 0.
func clampConfidence(v interface{}) float64 {
	f := coerceAmount(v)
	if f == nil {
		return 0
	}
	if *f < 0 {
		return 0
	}
	if *f > 1 {
		return 1
	}
	return *f
}

func coerceString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
