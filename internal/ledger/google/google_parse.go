package google

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"debtplan/internal/core"
)

var loanHeader = []string{
	"ID", "Type", "Principal", "Amount Paid", "EMI",
	"Interest Rate", "Tenure", "Start Date", "Description", "Created At",
}

// loanColumns maps fields to column indexes. Without a header row the
// fixed layout applies; with one, unnamed fields are left empty (-1).
type loanColumns struct {
	id, typ, principal, paid, emi, rate, tenure, start, desc, created int
}

func defaultLoanColumns() loanColumns {
	return loanColumns{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
}

func isLoanHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id")
}

func columnsFromHeader(header []string) loanColumns {
	var cols loanColumns
	set := func(dst *int, names ...string) {
		*dst = -1
		for _, n := range names {
			if i := indexOf(header, n); i >= 0 {
				*dst = i
				return
			}
		}
	}
	set(&cols.id, "id")
	set(&cols.typ, "type", "loan type")
	set(&cols.principal, "principal")
	set(&cols.paid, "amount paid", "paid")
	set(&cols.emi, "emi", "minimum payment")
	set(&cols.rate, "interest rate", "rate")
	set(&cols.tenure, "tenure")
	set(&cols.start, "start date")
	set(&cols.desc, "description")
	set(&cols.created, "created at")
	return cols
}

// parseLoanRows converts sheet values into loan records. Blank rows are
// ignored; rows that fail to parse are counted in skipped.
func parseLoanRows(values [][]interface{}) (loans []core.LoanRecord, skipped int) {
	cols := defaultLoanColumns()
	for i, raw := range values {
		row := toStrings(raw)
		if i == 0 && isLoanHeader(row) {
			cols = columnsFromHeader(row)
			continue
		}
		if blankRow(row) {
			continue
		}
		rec, err := parseLoanRow(row, cols)
		if err != nil {
			skipped++
			continue
		}
		loans = append(loans, rec)
	}
	return loans, skipped
}

func parseLoanRow(row []string, cols loanColumns) (core.LoanRecord, error) {
	var rec core.LoanRecord
	id, err := strconv.ParseInt(safeGet(row, cols.id), 10, 64)
	if err != nil || id <= 0 {
		return rec, fmt.Errorf("bad id %q", safeGet(row, cols.id))
	}
	rec.ID = id
	rec.Type = safeGet(row, cols.typ)
	if rec.Type == "" {
		rec.Type = core.DefaultLoanType
	}
	if rec.Principal, err = core.ParseAmount(safeGet(row, cols.principal)); err != nil {
		return rec, fmt.Errorf("principal: %w", err)
	}
	if rec.AmountPaid, err = optionalAmount(safeGet(row, cols.paid)); err != nil {
		return rec, fmt.Errorf("amount paid: %w", err)
	}
	if rec.MinimumPayment, err = optionalAmount(safeGet(row, cols.emi)); err != nil {
		return rec, fmt.Errorf("emi: %w", err)
	}
	if rec.InterestRate, err = core.ParseRate(safeGet(row, cols.rate)); err != nil {
		return rec, fmt.Errorf("rate: %w", err)
	}
	if s := safeGet(row, cols.tenure); s != "" {
		if rec.TenureMonths, err = strconv.Atoi(s); err != nil {
			return rec, fmt.Errorf("tenure: %w", err)
		}
	}
	if rec.StartDate, err = core.ParseDate(safeGet(row, cols.start)); err != nil {
		return rec, err
	}
	rec.Description = safeGet(row, cols.desc)
	if s := safeGet(row, cols.created); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec, nil
}

func optionalAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return core.ParseAmount(s)
}

// loanRow renders a record in the fixed column layout.
func loanRow(r core.LoanRecord) []interface{} {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []interface{}{
		strconv.FormatInt(r.ID, 10),
		r.Type,
		formatAmount(r.Principal),
		formatAmount(r.AmountPaid),
		formatAmount(r.MinimumPayment),
		strconv.FormatFloat(r.InterestRate, 'f', -1, 64),
		strconv.Itoa(r.TenureMonths),
		r.StartDate.String(),
		r.Description,
		created,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// findLoanRow returns the zero-based sheet row holding id, or -1.
func findLoanRow(values [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, raw := range values {
		row := toStrings(raw)
		if safeGet(row, 0) == want {
			return i
		}
	}
	return -1
}

func nextID(loans []core.LoanRecord) int64 {
	var max int64
	for _, l := range loans {
		if l.ID > max {
			max = l.ID
		}
	}
	return max + 1
}

// planRow: Computed At | Strategy | Budget | Cascade | Months | Interest | Final Balance | Loans
func planRow(s core.PlanSnapshot) []interface{} {
	return []interface{}{
		s.ComputedAt.UTC().Format(time.RFC3339Nano),
		string(s.Strategy),
		formatAmount(s.Budget),
		strconv.FormatBool(s.Cascade),
		strconv.Itoa(s.MonthsToPayoff),
		formatAmount(s.TotalInterestPaid),
		formatAmount(s.FinalBalance),
		strconv.Itoa(s.LoanCount),
	}
}

// latestPlan scans from the bottom for the newest row of the strategy.
func latestPlan(values [][]interface{}, strategy core.Strategy) (core.PlanSnapshot, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		row := toStrings(values[i])
		if !strings.EqualFold(safeGet(row, 1), string(strategy)) {
			continue
		}
		snap, err := parsePlanRow(row)
		if err != nil {
			continue
		}
		snap.ID = int64(i + 1)
		return snap, true
	}
	return core.PlanSnapshot{}, false
}

func parsePlanRow(row []string) (core.PlanSnapshot, error) {
	var (
		s   core.PlanSnapshot
		err error
	)
	if s.ComputedAt, err = time.Parse(time.RFC3339Nano, safeGet(row, 0)); err != nil {
		return s, err
	}
	s.Strategy = core.Strategy(strings.ToLower(safeGet(row, 1)))
	if s.Budget, err = core.ParseAmount(safeGet(row, 2)); err != nil {
		return s, err
	}
	s.Cascade, _ = strconv.ParseBool(safeGet(row, 3))
	if s.MonthsToPayoff, err = strconv.Atoi(safeGet(row, 4)); err != nil {
		return s, err
	}
	if s.TotalInterestPaid, err = core.ParseAmount(safeGet(row, 5)); err != nil {
		return s, err
	}
	if s.FinalBalance, err = core.ParseAmount(safeGet(row, 6)); err != nil {
		return s, err
	}
	s.LoanCount, _ = strconv.Atoi(safeGet(row, 7))
	return s, nil
}

var rowNumberRe = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range like "Plans!A12:H12".
func rowFromRange(a1 string) int64 {
	m := rowNumberRe.FindStringSubmatch(a1)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.ParseInt(m[1], 10, 64)
	return n
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
