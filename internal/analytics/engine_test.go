package analytics

import (
	"math"
	"testing"

	"compass/internal/core"
)

func expense(amount float64, cat core.Category, date core.Date) core.Expense {
	return core.Expense{
		ExpenseID: "e",
		UserID:    "u1",
		Amount:    amount,
		Category:  cat,
		Date:      date,
	}
}

func TestSummarizeOrdersByAmountDesc(t *testing.T) {
	today := core.NewDate(2026, 8, 15)
	expenses := []core.Expense{
		expense(30, core.CategoryTravel, today),
		expense(60, core.CategoryFood, today),
		expense(10, core.CategoryFood, today),
	}

	summary := Summarize(expenses)
	if len(summary) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(summary))
	}
	if summary[0].Category != core.CategoryFood || summary[0].Amount != 70 {
		t.Fatalf("top group = %+v", summary[0])
	}
	if summary[1].Category != core.CategoryTravel || summary[1].Amount != 30 {
		t.Fatalf("second group = %+v", summary[1])
	}
	if summary[0].Percentage != 70 || summary[1].Percentage != 30 {
		t.Fatalf("percentages = %d, %d", summary[0].Percentage, summary[1].Percentage)
	}
}

func TestSummarizeZeroTotal(t *testing.T) {
	if got := Summarize(nil); len(got) != 0 {
		t.Fatalf("expected empty summary, got %v", got)
	}
}

func TestSummarizeRoundsPercentages(t *testing.T) {
	today := core.NewDate(2026, 8, 15)
	expenses := []core.Expense{
		expense(1, core.CategoryFood, today),
		expense(1, core.CategoryTravel, today),
		expense(1, core.CategoryRent, today),
	}
	for _, s := range Summarize(expenses) {
		if s.Percentage != 33 {
			t.Fatalf("expected 33%%, got %d%% for %s", s.Percentage, s.Category)
		}
	}
}

func TestDailySeriesBucketCount(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	for _, days := range []int{DaysWeek, DaysMonth} {
		series := DailySeries(nil, today, days)
		if len(series) != days {
			t.Fatalf("expected %d buckets, got %d", days, len(series))
		}
		if !series[days-1].Date.SameDay(today) {
			t.Fatalf("last bucket = %s, want today", series[days-1].Date.Key())
		}
		if !series[0].Date.SameDay(today.AddDays(1 - days)) {
			t.Fatalf("first bucket = %s", series[0].Date.Key())
		}
	}
}

func TestDailySeriesSumsAndIgnoresOutOfWindow(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	expenses := []core.Expense{
		expense(5, core.CategoryFood, today),
		expense(7, core.CategoryFood, today),
		expense(3, core.CategoryTravel, today.AddDays(-3)),
		expense(100, core.CategoryRent, today.AddDays(-10)), // outside a 7-day window
	}

	series := DailySeries(expenses, today, DaysWeek)
	if got := series[len(series)-1].Amount; got != 12 {
		t.Fatalf("today's bucket = %v, want 12", got)
	}
	if got := series[len(series)-1-3].Amount; got != 3 {
		t.Fatalf("bucket -3d = %v, want 3", got)
	}
	var total float64
	for _, p := range series {
		total += p.Amount
	}
	if total != 15 {
		t.Fatalf("window total = %v, want 15", total)
	}
}

func TestTrendPercentChange(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	expenses := []core.Expense{
		expense(70, core.CategoryFood, today.AddDays(-10)), // previous window
		expense(140, core.CategoryFood, today.AddDays(-2)), // recent window
	}

	tc := Trend(DailySeries(expenses, today, DaysMonth))
	if tc.NoPriorData {
		t.Fatal("expected prior data")
	}
	if tc.Recent != 140 || tc.Previous != 70 {
		t.Fatalf("windows = %v / %v", tc.Recent, tc.Previous)
	}
	if math.Abs(tc.PercentChange-100) > 1e-9 {
		t.Fatalf("percent change = %v, want 100", tc.PercentChange)
	}
}

func TestTrendNoPriorData(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	expenses := []core.Expense{
		expense(50, core.CategoryFood, today), // recent only
	}

	tc := Trend(DailySeries(expenses, today, DaysMonth))
	if !tc.NoPriorData {
		t.Fatal("expected NoPriorData")
	}
	if tc.PercentChange != 0 {
		t.Fatalf("percent change = %v, want 0", tc.PercentChange)
	}
}

func TestBuildReport(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	expenses := []core.Expense{
		expense(100, core.CategoryFood, today),
	}

	rep := BuildReport(expenses, 1000, today, DaysMonth, DefaultThresholds())
	if rep.TotalSpent != 100 {
		t.Fatalf("TotalSpent = %v", rep.TotalSpent)
	}
	if rep.RemainingBudget != 900 {
		t.Fatalf("RemainingBudget = %v", rep.RemainingBudget)
	}
	if len(rep.Summary) != 1 || rep.Summary[0].Percentage != 100 {
		t.Fatalf("Summary = %+v", rep.Summary)
	}
	if len(rep.Daily) != DaysMonth {
		t.Fatalf("Daily buckets = %d", len(rep.Daily))
	}
	if len(rep.Insights) == 0 {
		t.Fatal("expected insights")
	}
}

func TestBuildReportWeekWindowKeepsTrendHistory(t *testing.T) {
	today := core.NewDate(2026, 8, 30)
	expenses := []core.Expense{
		expense(50, core.CategoryFood, today),
		// Previous week, outside the 7-day display window.
		expense(100, core.CategoryFood, today.AddDays(-8)),
	}

	rep := BuildReport(expenses, 0, today, DaysWeek, DefaultThresholds())
	if len(rep.Daily) != DaysWeek {
		t.Fatalf("Daily buckets = %d, want %d", len(rep.Daily), DaysWeek)
	}
	if rep.Trend.NoPriorData {
		t.Fatal("trend lost the previous week")
	}
	if rep.Trend.Recent != 50 || rep.Trend.Previous != 100 {
		t.Fatalf("Trend = %+v", rep.Trend)
	}
	if rep.Trend.PercentChange != -50 {
		t.Fatalf("PercentChange = %v", rep.Trend.PercentChange)
	}
}

func TestBuildReportFallsBackToMonthWindow(t *testing.T) {
	rep := BuildReport(nil, 0, core.NewDate(2026, 8, 30), 12, DefaultThresholds())
	if len(rep.Daily) != DaysMonth {
		t.Fatalf("Daily buckets = %d, want %d", len(rep.Daily), DaysMonth)
	}
}
