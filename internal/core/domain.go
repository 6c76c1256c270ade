package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Avalanche Strategy = "avalanche"
	Snowball  Strategy = "snowball"
)

// MaxInterestRate is the highest annual rate (percent) a ledger record may carry.
const MaxInterestRate = 100.0

type (
	// Strategy names a payoff ordering.
	Strategy string

	Date struct {
		time.Time
	}

	// Loan is the simulator's view of a debt. Values are copied per run.
	Loan struct {
		OutstandingBalance float64 `json:"outstanding_balance" yaml:"outstanding_balance"`
		AnnualRatePercent  float64 `json:"annual_rate_percent" yaml:"annual_rate_percent"`
		MinimumPayment     float64 `json:"minimum_payment" yaml:"minimum_payment"`
	}

	// LoanRecord is a loan as it is kept in the ledger.
	LoanRecord struct {
		ID             int64
		Type           string
		Principal      float64
		AmountPaid     float64
		MinimumPayment float64 // EMI
		InterestRate   float64 // annual, percent
		TenureMonths   int
		StartDate      Date
		Description    string
		CreatedAt      time.Time
	}
)

var (
	ErrInvalidBudget        = errors.New("invalid monthly budget")
	ErrInvalidLoan          = errors.New("invalid loan")
	ErrUnknownStrategy      = errors.New("unknown strategy")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidRate          = errors.New("invalid interest rate")
	ErrInvalidTenure        = errors.New("invalid tenure")
	ErrPaidExceedsPrincipal = errors.New("amount paid exceeds principal")
	ErrUnknownLoanType      = errors.New("unknown loan type")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrInvalidDate          = errors.New("invalid date (want YYYY-MM-DD)")
)

// ParseStrategy maps user input ("Debt Avalanche", "snowball", ...) to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "debt ")
	switch Strategy(v) {
	case Avalanche, Snowball:
		return Strategy(v), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func (s Strategy) String() string {
	return string(s)
}

// Strategies returns the built-in strategies in display order.
func Strategies() []Strategy {
	return []Strategy{Avalanche, Snowball}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO (2006-01-02) date. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as 2006-01-02, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Validate checks the simulator preconditions for a single loan.
func (l Loan) Validate() error {
	switch {
	case !finiteNonNegative(l.OutstandingBalance):
		return fmt.Errorf("%w: outstanding balance %v", ErrInvalidLoan, l.OutstandingBalance)
	case !finiteNonNegative(l.AnnualRatePercent):
		return fmt.Errorf("%w: annual rate %v", ErrInvalidLoan, l.AnnualRatePercent)
	case !finiteNonNegative(l.MinimumPayment):
		return fmt.Errorf("%w: minimum payment %v", ErrInvalidLoan, l.MinimumPayment)
	}
	return nil
}

// MonthlyInterest is the interest one month adds to the current balance.
func (l Loan) MonthlyInterest() float64 {
	return l.OutstandingBalance * (l.AnnualRatePercent / 100) / 12
}

// ValidateBudget checks that a monthly budget is usable.
func ValidateBudget(budget float64) error {
	if !finiteNonNegative(budget) {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}
	return nil
}

// Outstanding is principal minus what has been repaid, never below zero.
func (r LoanRecord) Outstanding() float64 {
	return math.Max(0, r.Principal-r.AmountPaid)
}

// ToLoan converts a ledger record into simulator input.
func (r LoanRecord) ToLoan() Loan {
	return Loan{
		OutstandingBalance: r.Outstanding(),
		AnnualRatePercent:  r.InterestRate,
		MinimumPayment:     r.MinimumPayment,
	}
}

func (r LoanRecord) Validate() error {
	if _, ok := LookupLoanType(r.Type); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLoanType, r.Type)
	}
	if !finiteNonNegative(r.Principal) || !finiteNonNegative(r.AmountPaid) || !finiteNonNegative(r.MinimumPayment) {
		return ErrInvalidAmount
	}
	if r.AmountPaid > r.Principal {
		return ErrPaidExceedsPrincipal
	}
	if !finiteNonNegative(r.InterestRate) || r.InterestRate > MaxInterestRate {
		return ErrInvalidRate
	}
	if r.TenureMonths < 0 {
		return ErrInvalidTenure
	}
	if len(r.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// ToLoans converts and validates a ledger snapshot, preserving order.
func ToLoans(records []LoanRecord) ([]Loan, error) {
	loans := make([]Loan, 0, len(records))
	for i, r := range records {
		l := r.ToLoan()
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("loan %d (id=%d): %w", i, r.ID, err)
		}
		loans = append(loans, l)
	}
	return loans, nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
