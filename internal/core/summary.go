package core

// CategorySummary is the per-category slice of total spending.
type CategorySummary struct {
	Category   Category `json:"category"`
	Amount     float64  `json:"amount"`
	Percentage int      `json:"percentage"` // rounded share of total spend, 0 when total is 0
}

// DailyPoint is one bucket of the daily spending series.
type DailyPoint struct {
	Date   Date    `json:"date"`
	Amount float64 `json:"amount"`
}

// TrendComparison compares the most recent 7-day window against the
// preceding one. NoPriorData is set when the previous window had no
// spending, in which case PercentChange is 0 rather than infinite.
type TrendComparison struct {
	Recent        float64 `json:"recent"`
	Previous      float64 `json:"previous"`
	PercentChange float64 `json:"percentChange"`
	NoPriorData   bool    `json:"noPriorData"`
}

const (
	InsightInfo    InsightKind = "info"
	InsightWarning InsightKind = "warning"
	InsightSuccess InsightKind = "success"
)

type (
	InsightKind string

	// Insight is a rule-generated observation about spending behaviour.
	Insight struct {
		Kind        InsightKind `json:"kind"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
	}
)

// TotalSpent sums all expense amounts.
func TotalSpent(expenses []Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}
