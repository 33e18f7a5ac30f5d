// Package report builds CSV expense reports and serves them through
// short-lived download tokens.
package report

import (
	"fmt"
	"strings"
	"time"

	"compass/internal/core"
)

// bom makes spreadsheet tools detect UTF-8 instead of guessing.
const bom = "\uFEFF"

const csvHeader = "Date,Amount,Category,Description"

// BuildCSV renders expenses as a CSV document with a UTF-8 BOM. Dates use
// the MM/DD/YYYY form; descriptions are always quoted.
func BuildCSV(expenses []core.Expense) []byte {
	var b strings.Builder
	b.WriteString(bom)
	b.WriteString(csvHeader)
	b.WriteString("\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "%s,%.2f,%s,%s\n",
			e.Date.Format("01/02/2006"),
			e.Amount,
			e.Category,
			quote(e.Description))
	}
	return []byte(b.String())
}

// quote wraps s in double quotes, doubling any embedded quotes per CSV
// rules.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName returns the download filename for a user's report generated at
// the given time.
func FileName(userID string, now time.Time) string {
	return fmt.Sprintf("expense-report-%s-%s.csv", userID, now.UTC().Format("2006-01-02"))
}
