package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"debtplan/internal/core"
	"debtplan/internal/ledger"
	"debtplan/internal/loanfile"
	"debtplan/internal/projection"
)

const sampleLoans = `budget: 500
strategy: snowball
loans:
  - type: Credit Card Loan
    principal: 2400
    minimum_payment: 120
    interest_rate: 42
  - type: Car Loan
    principal: 9000
    amount_paid: 1500
    minimum_payment: 210
    description: hatchback
`

func writeLoans(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loans.yaml")
	if err := os.WriteFile(path, []byte(sampleLoans), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateUsesFileDefaults(t *testing.T) {
	path := writeLoans(t)
	out, err := run(t, "simulate", "--loans", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res core.SimulationResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Strategy != core.Snowball || !res.Payable() || len(res.Loans) != 2 {
		t.Fatalf("res=%+v", res)
	}

	out, err = run(t, "simulate", "--loans", path, "--strategy", "avalanche", "--budget", "800")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "AVALANCHE PLAN") || !strings.Contains(out, "Car Loan (hatchback)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSimulateRequiresBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.toml")
	if err := loanfile.Save(path, loanfile.File{Loans: []loanfile.Entry{{Type: "Gold Loan", Principal: 100, MinimumPayment: 10}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "simulate", "--loans", path); err == nil || !strings.Contains(err.Error(), "budget") {
		t.Fatalf("want budget error, got %v", err)
	}
	if _, err := run(t, "simulate", "--loans", path, "--budget", "50", "--strategy", "fastest"); !errors.Is(err, core.ErrUnknownStrategy) {
		t.Fatalf("want ErrUnknownStrategy, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	path := writeLoans(t)
	out, err := run(t, "compare", "--loans", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var cmp core.Comparison
	if err := json.Unmarshal([]byte(out), &cmp); err != nil {
		t.Fatal(err)
	}
	if cmp.Avalanche.Strategy != core.Avalanche || cmp.Snowball.Strategy != core.Snowball {
		t.Fatalf("cmp=%+v", cmp)
	}
	if cmp.Avalanche.TotalInterestPaid > cmp.Snowball.TotalInterestPaid+0.01 {
		t.Fatalf("avalanche paid more: %v > %v", cmp.Avalanche.TotalInterestPaid, cmp.Snowball.TotalInterestPaid)
	}
}

func TestLoansAddRemoveWritesFile(t *testing.T) {
	path := writeLoans(t)

	out, err := run(t, "loans", "add", "--loans", path, "--type", "education loan", "--principal", "5000", "--emi", "90")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Recorded loan 3: Education Loan") || !strings.Contains(out, "10.00%") {
		t.Fatalf("unexpected output %q", out)
	}

	f, err := loanfile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Loans) != 3 || f.Budget != 500 || f.Strategy != "snowball" {
		t.Fatalf("file=%+v", f)
	}

	if _, err := run(t, "loans", "rm", "1", "--loans", path); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "loans", "--loans", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Credit Card Loan") || !strings.Contains(out, "Education Loan") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	if _, err := run(t, "loans", "rm", "99", "--loans", path); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := run(t, "loans", "add", "--loans", path, "--type", "Moon Loan", "--principal", "1"); !errors.Is(err, core.ErrUnknownLoanType) {
		t.Fatalf("want ErrUnknownLoanType, got %v", err)
	}
}

func TestLoansUpdateAndSchedule(t *testing.T) {
	path := writeLoans(t)

	out, err := run(t, "loans", "update", "1", "--loans", path, "--paid", "400", "--tenure", "24")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Updated loan 1: Credit Card Loan") {
		t.Fatalf("unexpected output %q", out)
	}
	f, err := loanfile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cc := f.Loans[0]
	if len(f.Loans) != 2 || cc.AmountPaid != 400 || cc.TenureMonths != 24 || cc.Principal != 2400 || cc.MinimumPayment != 120 {
		t.Fatalf("file after update=%+v", f.Loans)
	}

	out, err = run(t, "loans", "schedule", "1", "--loans", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []projection.AmortizationRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	// 42% a year is 3.5% a month on the 2400 principal.
	if len(rows) != 24 || math.Abs(rows[0].Interest-84) > 1e-9 || math.Abs(rows[0].Balance-2364) > 1e-9 {
		t.Fatalf("schedule head=%+v (%d rows)", rows[0], len(rows))
	}

	out, err = run(t, "loans", "schedule", "1", "--loans", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Schedule: loan 1, Credit Card Loan") || !strings.Contains(out, "TOTAL") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "loans", "schedule", "2", "--loans", path); !errors.Is(err, projection.ErrInvalidInput) {
		t.Fatalf("loan without tenure: want ErrInvalidInput, got %v", err)
	}
	if _, err := run(t, "loans", "update", "7", "--loans", path, "--paid", "1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := run(t, "loans", "update", "1", "--loans", path, "--paid", "9999"); !errors.Is(err, core.ErrPaidExceedsPrincipal) {
		t.Fatalf("want ErrPaidExceedsPrincipal, got %v", err)
	}
}

func TestLoansExport(t *testing.T) {
	path := writeLoans(t)
	dest := filepath.Join(t.TempDir(), "out.toml")
	if _, err := run(t, "loans", "export", dest, "--loans", path); err != nil {
		t.Fatal(err)
	}
	f, err := loanfile.Load(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Loans) != 2 || f.Budget != 500 {
		t.Fatalf("exported=%+v", f)
	}
	if _, err := run(t, "loans", "export", "out.csv", "--loans", path); !errors.Is(err, loanfile.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoansSQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	if _, err := run(t, "loans", "add", "--db", db, "--principal", "1000", "--emi", "50"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "loans", "--db", db, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var f loanfile.File
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Loans) != 1 || f.Loans[0].Type != core.DefaultLoanType {
		t.Fatalf("loans=%+v", f.Loans)
	}
}

func TestProject(t *testing.T) {
	out, err := run(t, "project", "sip", "--monthly", "100", "--return", "12", "--months", "12", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var g projection.Growth
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatal(err)
	}
	if g.Invested != 1200 || g.FutureValue <= g.Invested {
		t.Fatalf("growth=%+v", g)
	}

	out, err = run(t, "project", "retire", "--expenses", "2000")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Corpus needed") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "project", "swp", "--corpus", "1000", "--years", "0"); !errors.Is(err, projection.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var types []core.LoanType
	if err := json.Unmarshal([]byte(out), &types); err != nil {
		t.Fatal(err)
	}
	if len(types) != len(core.LoanTypes()) {
		t.Fatalf("got %d types", len(types))
	}
}
