package services

import (
	"fmt"

	"debtplan/internal/core"
)

// DefaultMaxMonths caps a simulation at 100 years.
const DefaultMaxMonths = 1200

type simulateOptions struct {
	cascade   bool
	maxMonths int
}

// SimulateOption tweaks a single Simulate call.
type SimulateOption func(*simulateOptions)

// WithCascade sends budget left after minimum payments to the highest
// priority open loan. When that loan is cleared the rest moves on to the next
// one, so a single month's surplus can retire several loans rather than
// stopping at the first.
func WithCascade() SimulateOption {
	return func(o *simulateOptions) { o.cascade = true }
}

// WithCascadeEnabled is WithCascade driven by a flag.
func WithCascadeEnabled(enabled bool) SimulateOption {
	return func(o *simulateOptions) { o.cascade = enabled }
}

// WithMaxMonths overrides DefaultMaxMonths. Values <= 0 are ignored.
func WithMaxMonths(n int) SimulateOption {
	return func(o *simulateOptions) {
		if n > 0 {
			o.maxMonths = n
		}
	}
}

// Simulate runs a month-by-month repayment of loans under a fixed monthly
// budget. Each month interest accrues on every open balance and is
// capitalized, then minimums are paid in strategy order for as long as any
// budget is left. A loan reached while budget remains gets its full minimum
// (capped at its balance). A plan that is still open after the month cap
// reports core.Unpayable.
//
// loans is not modified.
func Simulate(loans []core.Loan, budget float64, strategy core.Strategy, opts ...SimulateOption) (core.SimulationResult, error) {
	o := simulateOptions{maxMonths: DefaultMaxMonths}
	for _, opt := range opts {
		opt(&o)
	}

	if err := core.ValidateBudget(budget); err != nil {
		return core.SimulationResult{}, err
	}
	for i, l := range loans {
		if err := l.Validate(); err != nil {
			return core.SimulationResult{}, fmt.Errorf("loan %d: %w", i, err)
		}
	}
	orderer, err := GetOrderer(strategy)
	if err != nil {
		return core.SimulationResult{}, err
	}

	balances := make([]float64, len(loans))
	total := 0.0
	for i, l := range loans {
		balances[i] = l.OutstandingBalance
		total += l.OutstandingBalance
	}
	order := orderer.Order(loans)

	res := core.SimulationResult{
		Strategy: strategy,
		Loans:    make([]core.LoanOutcome, len(loans)),
	}
	for i := range res.Loans {
		res.Loans[i].PaidOffMonth = -1
		if balances[i] <= 0 {
			res.Loans[i].PaidOffMonth = 0
		}
	}

	if total <= 0 {
		res.Trajectory = []core.BalancePoint{{Month: 0, Balance: 0}}
		return res, nil
	}

	month := 0
	for total > 0 && month < o.maxMonths {
		for i, l := range loans {
			if balances[i] <= 0 {
				continue
			}
			interest := balances[i] * (l.AnnualRatePercent / 100) / 12
			balances[i] += interest
			res.Loans[i].InterestPaid += interest
			res.TotalInterestPaid += interest
		}

		remaining := budget
		for _, i := range order {
			if remaining <= 0 {
				break
			}
			if balances[i] <= 0 {
				continue
			}
			// The last loan paid may take remaining below zero.
			remaining -= pay(&balances[i], &res.Loans[i], min(loans[i].MinimumPayment, balances[i]))
		}
		if o.cascade {
			for _, i := range order {
				if remaining <= 0 {
					break
				}
				if balances[i] <= 0 {
					continue
				}
				remaining -= pay(&balances[i], &res.Loans[i], min(balances[i], remaining))
			}
		}

		total = 0
		for i := range balances {
			if balances[i] <= 0 {
				balances[i] = 0
				if res.Loans[i].PaidOffMonth < 0 {
					res.Loans[i].PaidOffMonth = month + 1
				}
			}
			total += balances[i]
		}
		res.Trajectory = append(res.Trajectory, core.BalancePoint{
			Month:        month,
			Balance:      total,
			InterestPaid: res.TotalInterestPaid,
		})
		month++
	}

	if total <= 0 {
		res.MonthsToPayoff = month
	} else {
		res.MonthsToPayoff = core.Unpayable
	}
	return res, nil
}

func pay(balance *float64, out *core.LoanOutcome, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	*balance -= amount
	out.TotalPaid += amount
	return amount
}
