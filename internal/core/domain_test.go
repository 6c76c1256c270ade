package core

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"avalanche", Avalanche, true},
		{"Debt Avalanche", Avalanche, true},
		{" SNOWBALL ", Snowball, true},
		{"Debt Snowball", Snowball, true},
		{"fastest", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnknownStrategy) {
			t.Fatalf("%q: expected ErrUnknownStrategy, got %v", tc.in, err)
		}
	}
}

func TestLoanValidate(t *testing.T) {
	good := Loan{OutstandingBalance: 1000, AnnualRatePercent: 12, MinimumPayment: 50}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Loan{}).Validate(); err != nil {
		t.Fatalf("zero loan should be valid, got %v", err)
	}

	bads := []Loan{
		{OutstandingBalance: -1, AnnualRatePercent: 1, MinimumPayment: 1},
		{OutstandingBalance: 1, AnnualRatePercent: -1, MinimumPayment: 1},
		{OutstandingBalance: 1, AnnualRatePercent: 1, MinimumPayment: -1},
		{OutstandingBalance: math.NaN(), AnnualRatePercent: 1, MinimumPayment: 1},
		{OutstandingBalance: math.Inf(1), AnnualRatePercent: 1, MinimumPayment: 1},
	}
	for i, l := range bads {
		if err := l.Validate(); !errors.Is(err, ErrInvalidLoan) {
			t.Fatalf("case %d expected ErrInvalidLoan, got %v", i, err)
		}
	}
}

func TestValidateBudget(t *testing.T) {
	for _, b := range []float64{0, 1, 1e9} {
		if err := ValidateBudget(b); err != nil {
			t.Fatalf("budget %v: %v", b, err)
		}
	}
	for _, b := range []float64{-0.01, math.NaN(), math.Inf(1)} {
		if err := ValidateBudget(b); !errors.Is(err, ErrInvalidBudget) {
			t.Fatalf("budget %v: expected ErrInvalidBudget, got %v", b, err)
		}
	}
}

func TestLoanRecordValidate(t *testing.T) {
	good := LoanRecord{
		Type:           "Home Loan",
		Principal:      250000,
		AmountPaid:     50000,
		MinimumPayment: 2100,
		InterestRate:   8,
		TenureMonths:   240,
		StartDate:      NewDate(2024, 3, 1),
		Description:    "flat",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := good.Outstanding(); got != 200000 {
		t.Fatalf("outstanding = %v", got)
	}
	l := good.ToLoan()
	if l.OutstandingBalance != 200000 || l.AnnualRatePercent != 8 || l.MinimumPayment != 2100 {
		t.Fatalf("unexpected loan %+v", l)
	}

	cases := []struct {
		name string
		mut  func(*LoanRecord)
		want error
	}{
		{"unknown type", func(r *LoanRecord) { r.Type = "Pirate Loan" }, ErrUnknownLoanType},
		{"negative principal", func(r *LoanRecord) { r.Principal = -1 }, ErrInvalidAmount},
		{"paid exceeds principal", func(r *LoanRecord) { r.AmountPaid = r.Principal + 1 }, ErrPaidExceedsPrincipal},
		{"rate above cap", func(r *LoanRecord) { r.InterestRate = 101 }, ErrInvalidRate},
		{"negative tenure", func(r *LoanRecord) { r.TenureMonths = -1 }, ErrInvalidTenure},
		{"description too long", func(r *LoanRecord) { r.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := good
			tc.mut(&r)
			if err := r.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestToLoansPreservesOrder(t *testing.T) {
	recs := []LoanRecord{
		{ID: 1, Type: "Car Loan", Principal: 100, MinimumPayment: 10, InterestRate: 9},
		{ID: 2, Type: "Gold Loan", Principal: 50, AmountPaid: 20, MinimumPayment: 5, InterestRate: 10},
	}
	loans, err := ToLoans(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loans) != 2 || loans[0].OutstandingBalance != 100 || loans[1].OutstandingBalance != 30 {
		t.Fatalf("unexpected loans %+v", loans)
	}

	recs[1].InterestRate = -2
	if _, err := ToLoans(recs); !errors.Is(err, ErrInvalidLoan) {
		t.Fatalf("expected ErrInvalidLoan, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-14")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-02-14" {
		t.Fatalf("got %s", d)
	}
	if d, err := ParseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty date: %v %v", d, err)
	}
	if _, err := ParseDate("14/02/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestLookupLoanType(t *testing.T) {
	lt, ok := LookupLoanType("credit card loan")
	if !ok || lt.DefaultRate != 45 {
		t.Fatalf("unexpected %+v %v", lt, ok)
	}
	if _, ok := LookupLoanType("Mortgage"); ok {
		t.Fatal("expected miss")
	}
	if n := len(LoanTypes()); n != 14 {
		t.Fatalf("catalogue size %d", n)
	}
}

func TestSnapshotFromResult(t *testing.T) {
	res := SimulationResult{
		Strategy:          Snowball,
		MonthsToPayoff:    2,
		TotalInterestPaid: 3,
		Trajectory:        []BalancePoint{{0, 50, 2}, {1, 0, 3}},
	}
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s := NewPlanSnapshot(res, 120, true, 1, at)
	if s.FinalBalance != 0 || !s.Cascade || s.LoanCount != 1 || s.Strategy != Snowball || !s.ComputedAt.Equal(at) {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if !res.Payable() {
		t.Fatal("expected payable")
	}
	if (SimulationResult{MonthsToPayoff: Unpayable}).Payable() {
		t.Fatal("expected unpayable")
	}
}
