package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"debtplan/internal/core"
)

// Theme colors
var (
	ColorBorder    = lipgloss.Color("#575653")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(ColorTextMuted)
	goodStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	badStyle   = lipgloss.NewStyle().Foreground(ColorRed)
)

// Table is a titled, bordered table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with rounded borders. Numeric-looking cells are
// right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(t.Rows) && col < len(t.Rows[row]) && numeric(t.Rows[row][col]) {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

func numeric(s string) bool {
	s = strings.NewReplacer(",", "", "%", "").Replace(strings.TrimSpace(s))
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// RenderLoans renders ledger records with their outstanding balance.
func RenderLoans(records []core.LoanRecord) string {
	rows := make([][]string, 0, len(records)+1)
	var total float64
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Type,
			FormatMoney(r.Outstanding()),
			FormatRate(r.InterestRate),
			FormatMoney(r.MinimumPayment),
			r.Description,
		})
		total += r.Outstanding()
	}
	rows = append(rows, []string{"", "TOTAL", FormatMoney(total), "", "", ""})
	return RenderTable(Table{
		Title:   fmt.Sprintf("Loans (%s)", FormatCount(len(records))),
		Headers: []string{"ID", "Type", "Outstanding", "Rate", "EMI", "Description"},
		Rows:    rows,
	})
}

// RenderSimulation summarizes a single plan, with per-loan outcomes
// labelled by labels (index-aligned with the simulated loans).
func RenderSimulation(res core.SimulationResult, labels []string) string {
	var b strings.Builder
	b.WriteString(RenderTitle(strings.ToUpper(res.Strategy.String()) + " PLAN"))
	b.WriteString("\n")

	months := FormatMonths(res.MonthsToPayoff)
	if res.Payable() {
		months = goodStyle.Render(months)
	} else {
		months = badStyle.Render(months)
	}
	fmt.Fprintf(&b, "  Debt free in      %s\n", months)
	fmt.Fprintf(&b, "  Interest paid     %s\n", FormatMoney(res.TotalInterestPaid))
	if !res.Payable() {
		fmt.Fprintf(&b, "  Balance left      %s\n", badStyle.Render(FormatMoney(res.FinalBalance())))
	}
	b.WriteString("\n")

	rows := make([][]string, 0, len(res.Loans))
	for i, o := range res.Loans {
		label := fmt.Sprintf("#%d", i+1)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		paidOff := mutedStyle.Render("open")
		if o.PaidOffMonth >= 0 {
			paidOff = FormatMonths(o.PaidOffMonth)
		}
		rows = append(rows, []string{label, paidOff, FormatMoney(o.InterestPaid), FormatMoney(o.TotalPaid)})
	}
	b.WriteString(RenderTable(Table{
		Title:   "By Loan",
		Headers: []string{"Loan", "Paid off", "Interest", "Total paid"},
		Rows:    rows,
	}))
	return b.String()
}

// RenderComparison renders both strategies side by side.
func RenderComparison(cmp core.Comparison) string {
	var b strings.Builder
	b.WriteString(RenderTitle("AVALANCHE vs SNOWBALL"))
	b.WriteString("\n")
	b.WriteString(RenderTable(Table{
		Headers: []string{"Strategy", "Months", "Interest", "Final balance"},
		Rows: [][]string{
			{"Avalanche", FormatMonths(cmp.Avalanche.MonthsToPayoff), FormatMoney(cmp.Avalanche.TotalInterestPaid), FormatMoney(cmp.Avalanche.FinalBalance())},
			{"Snowball", FormatMonths(cmp.Snowball.MonthsToPayoff), FormatMoney(cmp.Snowball.TotalInterestPaid), FormatMoney(cmp.Snowball.FinalBalance())},
		},
	}))
	fmt.Fprintf(&b, "  Avalanche saves   %s in interest", goodStyle.Render(FormatMoney(cmp.InterestSaved)))
	if cmp.MonthsSaved != 0 {
		fmt.Fprintf(&b, " and %d months", cmp.MonthsSaved)
	}
	b.WriteString("\n")
	return b.String()
}

// RenderKeyValues renders label/value pairs as a two-column table.
func RenderKeyValues(title string, pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return RenderTable(Table{Title: title, Headers: []string{"", ""}, Rows: rows})
}
