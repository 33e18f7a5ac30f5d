package analytics

import (
	"fmt"
	"math"

	"compass/internal/core"
)

// Thresholds are the tunable constants behind the insight rules. The
// defaults reproduce the dashboard's stock behaviour; callers may
// override individual values.
type Thresholds struct {
	// Budget usage tiers. Above BudgetWarningPct fires a warning, above
	// BudgetInfoPct an info, at or below BudgetInfoPct a success.
	BudgetWarningPct int
	BudgetInfoPct    int

	// ConcentrationPct is the top-category share above which spending is
	// considered too concentrated.
	ConcentrationPct int

	// DominanceRatio compares the top category share to the runner-up.
	DominanceRatio float64

	// NonEssential lists the categories counted as discretionary;
	// NonEssentialPct is their combined share that triggers a warning.
	NonEssential    []core.Category
	NonEssentialPct int

	// FoodPct is the food-share threshold for the meal-planning hint.
	FoodPct int

	// WeekendRatio is the weekend-vs-weekday average spend ratio that
	// triggers a warning.
	WeekendRatio float64

	// StreakDays is the minimum consecutive zero-spend day streak worth
	// celebrating.
	StreakDays int

	// SavingsSharePct marks categories large enough to trim;
	// SavingsCut is the reduction assumed achievable on each.
	SavingsSharePct int
	SavingsCut      float64
}

// DefaultThresholds returns the stock rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BudgetWarningPct: 90,
		BudgetInfoPct:    70,
		ConcentrationPct: 50,
		DominanceRatio:   2.0,
		NonEssential:     []core.Category{core.CategoryEntertainment, core.CategoryClothing, core.CategoryOther},
		NonEssentialPct:  40,
		FoodPct:          30,
		WeekendRatio:     1.5,
		StreakDays:       2,
		SavingsSharePct:  20,
		SavingsCut:       0.10,
	}
}

// Input carries everything the insight rules read.
type Input struct {
	Expenses      []core.Expense
	Summary       []core.CategorySummary
	Daily         []core.DailyPoint // trailing 30-day series, oldest first
	TotalSpent    float64
	MonthlyBudget float64
}

// Insights evaluates the rule sequence in a fixed order and returns one
// insight per rule whose condition holds. With no expenses at all it
// returns exactly one welcome insight and skips every other rule.
func Insights(in Input, t Thresholds) []core.Insight {
	if len(in.Expenses) == 0 {
		return []core.Insight{{
			Kind:        core.InsightInfo,
			Title:       "Welcome",
			Description: "Add your first expense to start tracking your spending and unlock personalized insights.",
		}}
	}

	var out []core.Insight
	add := func(kind core.InsightKind, title, description string) {
		out = append(out, core.Insight{Kind: kind, Title: title, Description: description})
	}

	// Budget usage tiers. Exactly one fires when a budget is set.
	if in.MonthlyBudget > 0 {
		used := int(math.Round(100 * in.TotalSpent / in.MonthlyBudget))
		switch {
		case used > t.BudgetWarningPct:
			add(core.InsightWarning, "Budget Alert",
				fmt.Sprintf("You've used %d%% of your monthly budget. Consider reducing expenses for the rest of the month.", used))
		case used > t.BudgetInfoPct:
			add(core.InsightInfo, "Budget Status",
				fmt.Sprintf("You've used %d%% of your monthly budget. You're on track but be mindful of your spending.", used))
		default:
			add(core.InsightSuccess, "Budget On Track",
				fmt.Sprintf("You've only used %d%% of your monthly budget. You're doing great!", used))
		}
	}

	// Top-category concentration.
	if len(in.Summary) >= 2 && in.Summary[0].Percentage > t.ConcentrationPct {
		top := in.Summary[0]
		add(core.InsightWarning, "Spending Concentration",
			fmt.Sprintf("%d%% of your spending is on %s. Consider diversifying your expenses.", top.Percentage, top.Category))
	}

	// Category dominance over the runner-up.
	if len(in.Summary) >= 2 && in.Summary[1].Percentage > 0 &&
		float64(in.Summary[0].Percentage) > t.DominanceRatio*float64(in.Summary[1].Percentage) {
		add(core.InsightInfo, "Dominant Category",
			fmt.Sprintf("%s takes %d%% of your spending, more than double the next category (%s at %d%%).",
				in.Summary[0].Category, in.Summary[0].Percentage, in.Summary[1].Category, in.Summary[1].Percentage))
	}

	// Combined non-essential share.
	if pct := sharePct(in.Summary, t.NonEssential); pct > t.NonEssentialPct {
		add(core.InsightWarning, "Non-Essential Spending",
			fmt.Sprintf("%d%% of your spending goes to non-essential categories. Trimming these is the quickest way to free up budget.", pct))
	}

	// Category-specific threshold: food.
	if food := findCategory(in.Summary, core.CategoryFood); food != nil && food.Percentage > t.FoodPct {
		add(core.InsightInfo, "Food Expenses",
			fmt.Sprintf("You're spending %d%% of your budget on food. Consider meal planning to reduce costs.", food.Percentage))
	}

	// Projected month-end overspend from the recent daily average.
	if in.MonthlyBudget > 0 {
		avgDaily := sumTail(in.Daily, DaysWeek) / DaysWeek
		if avgDaily > 0 && avgDaily*DaysMonth > in.MonthlyBudget {
			add(core.InsightWarning, "Spending Trend",
				"Based on your recent spending, you're on track to exceed your monthly budget. Try to reduce daily expenses.")
		}
	}

	// Weekend vs weekday average.
	if weekendAvg, weekdayAvg := weekendWeekdayAverages(in.Daily); weekdayAvg > 0 && weekendAvg/weekdayAvg > t.WeekendRatio {
		add(core.InsightWarning, "Weekend Spending",
			fmt.Sprintf("Your average weekend day costs %s versus %s on weekdays. Weekends are driving your spending.",
				core.FormatRupees(weekendAvg), core.FormatRupees(weekdayAvg)))
	}

	// Trailing-week volatility.
	if mean, variance := weekMeanVariance(in.Daily); mean > 0 && variance > mean*mean {
		add(core.InsightInfo, "Inconsistent Spending",
			"Your daily spending over the past week swings widely. A steadier pace makes budgets easier to hit.")
	}

	// Zero-spend streak.
	if streak := longestZeroStreak(in.Daily); streak >= t.StreakDays {
		add(core.InsightSuccess, "No-Spend Streak",
			fmt.Sprintf("You went %d days in a row without spending this month. Keep it up!", streak))
	}

	// Potential savings across the heaviest categories.
	if savings := potentialSavings(in.Summary, t); savings > 0 {
		cut := int(math.Round(t.SavingsCut * 100))
		add(core.InsightSuccess, "Potential Savings",
			fmt.Sprintf("Cutting your largest categories by %d%% could save %s a month.", cut, core.FormatRupees(savings)))
	}

	return out
}

func sharePct(summary []core.CategorySummary, categories []core.Category) int {
	pct := 0
	for _, cat := range categories {
		if s := findCategory(summary, cat); s != nil {
			pct += s.Percentage
		}
	}
	return pct
}

func findCategory(summary []core.CategorySummary, cat core.Category) *core.CategorySummary {
	for i := range summary {
		if summary[i].Category == cat {
			return &summary[i]
		}
	}
	return nil
}

func weekendWeekdayAverages(daily []core.DailyPoint) (weekendAvg, weekdayAvg float64) {
	var weekendSum, weekdaySum float64
	var weekendDays, weekdayDays int
	for _, p := range daily {
		if p.Date.IsWeekend() {
			weekendSum += p.Amount
			weekendDays++
		} else {
			weekdaySum += p.Amount
			weekdayDays++
		}
	}
	if weekendDays > 0 {
		weekendAvg = weekendSum / float64(weekendDays)
	}
	if weekdayDays > 0 {
		weekdayAvg = weekdaySum / float64(weekdayDays)
	}
	return weekendAvg, weekdayAvg
}

// weekMeanVariance computes the population mean and variance of the
// trailing 7 daily amounts.
func weekMeanVariance(daily []core.DailyPoint) (mean, variance float64) {
	start := len(daily) - DaysWeek
	if start < 0 {
		start = 0
	}
	week := daily[start:]
	if len(week) == 0 {
		return 0, 0
	}
	for _, p := range week {
		mean += p.Amount
	}
	mean /= float64(len(week))
	for _, p := range week {
		d := p.Amount - mean
		variance += d * d
	}
	variance /= float64(len(week))
	return mean, variance
}

// longestZeroStreak finds the longest run of consecutive zero-spend days
// anywhere in the trailing window.
func longestZeroStreak(daily []core.DailyPoint) int {
	longest, current := 0, 0
	for _, p := range daily {
		if p.Amount == 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

func potentialSavings(summary []core.CategorySummary, t Thresholds) float64 {
	var savings float64
	for _, s := range summary {
		if s.Percentage > t.SavingsSharePct {
			savings += s.Amount * t.SavingsCut
		}
	}
	return savings
}
