package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"debtplan/internal/core"
)

// FormatMoney renders an amount with thousands separators and two decimals.
// e.g., 1234567.891 -> "1,234,567.89"
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return humanize.FormatFloat("#,###.##", core.RoundCents(v))
}

// FormatRate formats an annual percentage.
func FormatRate(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatMonths renders a payoff horizon as years and months.
// e.g., 27 -> "2y 3m", 5 -> "5m"
func FormatMonths(n int) string {
	switch {
	case n == core.Unpayable:
		return "never"
	case n <= 0:
		return "0m"
	}
	y, m := n/12, n%12
	var parts []string
	if y > 0 {
		parts = append(parts, fmt.Sprintf("%dy", y))
	}
	if m > 0 || y == 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	return strings.Join(parts, " ")
}

// FormatCount adds comma separators to a count.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
