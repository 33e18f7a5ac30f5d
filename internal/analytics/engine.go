// Package analytics turns a flat list of expenses into the derived views
// the dashboard renders: category summaries, daily spending series, trend
// comparisons, and rule-based insights. Every function is pure; the same
// inputs always produce the same output.
package analytics

import (
	"math"
	"sort"

	"compass/internal/core"
)

const (
	// DaysWeek and DaysMonth are the two supported daily-series windows.
	DaysWeek  = 7
	DaysMonth = 30
)

// Summarize groups expenses by category, sums each group, and sorts the
// result by amount descending. Ties keep the order in which the category
// was first seen in the input. Percentages are rounded shares of the
// total; a zero total yields zero percentages for every group.
func Summarize(expenses []core.Expense) []core.CategorySummary {
	totals := make(map[core.Category]float64)
	var order []core.Category
	for _, e := range expenses {
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] += e.Amount
	}

	total := core.TotalSpent(expenses)
	summary := make([]core.CategorySummary, 0, len(order))
	for _, cat := range order {
		pct := 0
		if total > 0 {
			pct = int(math.Round(100 * totals[cat] / total))
		}
		summary = append(summary, core.CategorySummary{
			Category:   cat,
			Amount:     totals[cat],
			Percentage: pct,
		})
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i].Amount > summary[j].Amount
	})
	return summary
}

// DailySeries produces exactly days consecutive calendar-day buckets
// ending at today, each summing the expenses that fall on that day.
// Expenses outside the window are ignored.
func DailySeries(expenses []core.Expense, today core.Date, days int) []core.DailyPoint {
	series := make([]core.DailyPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := today.AddDays(i - days + 1)
		series[i] = core.DailyPoint{Date: d}
		index[d.Key()] = i
	}
	for _, e := range expenses {
		if i, ok := index[e.Date.Key()]; ok {
			series[i].Amount += e.Amount
		}
	}
	return series
}

// Trend compares the trailing 7-day total against the 7 days before it.
// The series must be ordered oldest-first, as DailySeries produces it.
// A zero previous window is reported as NoPriorData with a 0% change,
// never as an infinite or NaN percentage.
func Trend(series []core.DailyPoint) core.TrendComparison {
	recent := sumTail(series, DaysWeek)
	previous := sumWindow(series, 2*DaysWeek, DaysWeek)

	tc := core.TrendComparison{Recent: recent, Previous: previous}
	if previous > 0 {
		tc.PercentChange = (recent - previous) / previous * 100
	} else {
		tc.NoPriorData = true
	}
	return tc
}

// Report bundles every derived view for one recomputation pass.
type Report struct {
	TotalSpent      float64
	RemainingBudget float64
	Summary         []core.CategorySummary
	Daily           []core.DailyPoint
	Trend           core.TrendComparison
	Insights        []core.Insight
}

// BuildReport recomputes all derived views for the given expenses and
// budget. It is re-run wholesale on every change; there is no incremental
// state to maintain.
func BuildReport(expenses []core.Expense, monthlyBudget float64, today core.Date, days int, t Thresholds) Report {
	if days != DaysWeek && days != DaysMonth {
		days = DaysMonth
	}
	total := core.TotalSpent(expenses)
	summary := Summarize(expenses)
	daily := DailySeries(expenses, today, days)

	// The display window only controls Report.Daily. Trend needs two full
	// weeks and the insight rules a whole month, so both always read a
	// month of buckets.
	month := daily
	if days != DaysMonth {
		month = DailySeries(expenses, today, DaysMonth)
	}

	return Report{
		TotalSpent:      total,
		RemainingBudget: monthlyBudget - total,
		Summary:         summary,
		Daily:           daily,
		Trend:           Trend(month),
		Insights: Insights(Input{
			Expenses:      expenses,
			Summary:       summary,
			Daily:         month,
			TotalSpent:    total,
			MonthlyBudget: monthlyBudget,
		}, t),
	}
}

func sumTail(series []core.DailyPoint, n int) float64 {
	return sumWindow(series, n, n)
}

// sumWindow sums n points starting back positions from the end.
func sumWindow(series []core.DailyPoint, back, n int) float64 {
	start := len(series) - back
	if start < 0 {
		n += start
		start = 0
	}
	var total float64
	for i := 0; i < n && start+i < len(series); i++ {
		total += series[start+i].Amount
	}
	return total
}
