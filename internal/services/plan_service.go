package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"debtplan/internal/cache"
	"debtplan/internal/core"
	"debtplan/internal/ledger"
)

// PlanService simulates the ledger's current loans.
type PlanService struct {
	loans    ledger.LoanReader
	recorder ledger.PlanRecorder
	results  cache.Store[core.SimulationResult]
	now      func() time.Time
}

// PlanOption configures a PlanService.
type PlanOption func(*PlanService)

// WithResultCache memoizes simulation results keyed by input fingerprint.
func WithResultCache(store cache.Store[core.SimulationResult]) PlanOption {
	return func(s *PlanService) { s.results = store }
}

// WithPlanRecorder enables Refresh to persist snapshots.
func WithPlanRecorder(r ledger.PlanRecorder) PlanOption {
	return func(s *PlanService) { s.recorder = r }
}

func NewPlanService(loans ledger.LoanReader, opts ...PlanOption) *PlanService {
	s := &PlanService{loans: loans, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadLoans reads the ledger and converts it to simulator input.
func (s *PlanService) LoadLoans(ctx context.Context) ([]core.Loan, error) {
	records, err := s.loans.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return core.ToLoans(records)
}

// Plan simulates the ledger under one strategy.
func (s *PlanService) Plan(ctx context.Context, budget float64, strategy core.Strategy, cascade bool) (core.SimulationResult, error) {
	loans, err := s.LoadLoans(ctx)
	if err != nil {
		return core.SimulationResult{}, err
	}
	return s.Simulate(ctx, loans, budget, strategy, cascade)
}

// Compare simulates the ledger under both built-in strategies.
func (s *PlanService) Compare(ctx context.Context, budget float64, cascade bool) (core.Comparison, error) {
	loans, err := s.LoadLoans(ctx)
	if err != nil {
		return core.Comparison{}, err
	}
	return s.CompareLoans(ctx, loans, budget, cascade)
}

// CompareLoans is Compare over an explicit snapshot.
func (s *PlanService) CompareLoans(ctx context.Context, loans []core.Loan, budget float64, cascade bool) (core.Comparison, error) {
	var av, sb core.SimulationResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		av, err = s.Simulate(gctx, loans, budget, core.Avalanche, cascade)
		return err
	})
	g.Go(func() (err error) {
		sb, err = s.Simulate(gctx, loans, budget, core.Snowball, cascade)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Comparison{}, err
	}
	return NewComparison(av, sb), nil
}

// Simulate runs the simulator, serving repeated inputs from the result
// cache. Cache failures are logged and never fail the call. Results are
// copied in and out of the cache, so callers may modify what they get.
func (s *PlanService) Simulate(ctx context.Context, loans []core.Loan, budget float64, strategy core.Strategy, cascade bool) (core.SimulationResult, error) {
	if s.results == nil {
		return Simulate(loans, budget, strategy, WithCascadeEnabled(cascade))
	}

	key := cache.Fingerprint(loans, budget, strategy, cascade)
	res, ok, err := s.results.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Result cache read failed", "key", key, "error", err)
	}
	if ok {
		slog.DebugContext(ctx, "Result cache hit", "key", key, "strategy", strategy)
		return res.Clone(), nil
	}

	res, err = Simulate(loans, budget, strategy, WithCascadeEnabled(cascade))
	if err != nil {
		return core.SimulationResult{}, err
	}
	if err := s.results.Set(ctx, key, res.Clone()); err != nil {
		slog.WarnContext(ctx, "Result cache write failed", "key", key, "error", err)
	}
	return res, nil
}

// Refresh recomputes both strategies and records a snapshot of each.
func (s *PlanService) Refresh(ctx context.Context, budget float64, cascade bool) ([]core.PlanSnapshot, error) {
	if s.recorder == nil {
		return nil, fmt.Errorf("refresh plans: no plan recorder configured")
	}
	loans, err := s.LoadLoans(ctx)
	if err != nil {
		return nil, err
	}
	cmp, err := s.CompareLoans(ctx, loans, budget, cascade)
	if err != nil {
		return nil, err
	}

	at := s.now()
	snaps := make([]core.PlanSnapshot, 0, 2)
	for _, res := range []core.SimulationResult{cmp.Avalanche, cmp.Snowball} {
		snap := core.NewPlanSnapshot(res, budget, cascade, len(loans), at)
		id, err := s.recorder.RecordPlan(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("record %s plan: %w", res.Strategy, err)
		}
		snap.ID = id
		snaps = append(snaps, snap)
	}

	slog.InfoContext(ctx, "Plans refreshed",
		"loans", len(loans),
		"budget", budget,
		"avalanche_months", cmp.Avalanche.MonthsToPayoff,
		"snowball_months", cmp.Snowball.MonthsToPayoff,
		"interest_saved", core.RoundCents(cmp.InterestSaved))
	return snaps, nil
}
