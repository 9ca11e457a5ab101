package domain

// TemporalEntityType enumerates the recognized temporal expression families.
type TemporalEntityType string

const (
	TemporalQuarter      TemporalEntityType = "quarter"
	TemporalYear         TemporalEntityType = "year"
	TemporalFiscalYear   TemporalEntityType = "fiscal_year"
	TemporalMonth        TemporalEntityType = "month"
	TemporalDateRange    TemporalEntityType = "date_range"
	TemporalSpecificDate TemporalEntityType = "specific_date"
)

// TemporalEntity is a recognized temporal substring used as a ranking signal.
// Confidence is a heuristic, not a probability; it is never negative.
type TemporalEntity struct {
	Type       TemporalEntityType `json:"type"`
	Raw        string             `json:"raw"`
	Normalized string             `json:"normalized"`
	Confidence float64            `json:"confidence"`
	Position   int                `json:"position"`
}

// FinancialEntityType enumerates the recognized financial expression families.
type FinancialEntityType string

const (
	FinancialCurrencyAmount FinancialEntityType = "currency_amount"
	FinancialPercentage     FinancialEntityType = "percentage"
	FinancialMetric         FinancialEntityType = "metric"
)

// FinancialEntity is a recognized financial substring. Normalized is nil when
// the raw value could not be parsed into a number.
type FinancialEntity struct {
	Type       FinancialEntityType `json:"type"`
	Raw        string              `json:"raw"`
	Normalized *float64            `json:"normalized"`
	Unit       string              `json:"unit,omitempty"`
	Confidence float64             `json:"confidence"`
	Position   int                 `json:"position"`
}
