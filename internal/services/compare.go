package services

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"debtplan/internal/core"
)

// Compare simulates the same loans under avalanche and snowball
// concurrently. MonthsSaved is only reported when both plans are payable.
func Compare(ctx context.Context, loans []core.Loan, budget float64, opts ...SimulateOption) (core.Comparison, error) {
	var cmp core.Comparison
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := Simulate(loans, budget, core.Avalanche, opts...)
		cmp.Avalanche = r
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := Simulate(loans, budget, core.Snowball, opts...)
		cmp.Snowball = r
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Comparison{}, err
	}

	return NewComparison(cmp.Avalanche, cmp.Snowball), nil
}

// NewComparison derives the savings of avalanche over snowball.
func NewComparison(avalanche, snowball core.SimulationResult) core.Comparison {
	cmp := core.Comparison{Avalanche: avalanche, Snowball: snowball}
	cmp.InterestSaved = math.Max(0, snowball.TotalInterestPaid-avalanche.TotalInterestPaid)
	if avalanche.Payable() && snowball.Payable() {
		cmp.MonthsSaved = snowball.MonthsToPayoff - avalanche.MonthsToPayoff
	}
	return cmp
}
