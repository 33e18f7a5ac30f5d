// Package core holds the expense-tracking domain model: users, expenses,
// calendar dates, the fixed category set, and the derived views the
// analytics engine produces from them.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string to a positive amount. It accepts
// both dot and comma decimal separators. Returns an error for invalid
// formats, negative values, or zero amounts.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupees renders an amount as a rupee string for display, e.g.
// "₹12.34". Whole amounts drop the fractional part.
func FormatRupees(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	s = strings.TrimSuffix(s, ".00")
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}
