package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"debtplan/internal/cache"
	"debtplan/internal/core"
)

type countingStore struct {
	cache.LocalStore[core.SimulationResult]
	sets int
}

func (c *countingStore) Set(ctx context.Context, key string, v core.SimulationResult) error {
	c.sets++
	return c.LocalStore.Set(ctx, key, v)
}

func seededLedger() *fakeLedger {
	return &fakeLedger{
		nextID: 2,
		loans: []core.LoanRecord{
			{ID: 1, Type: "Credit Card Loan", Principal: 1200, AmountPaid: 200, MinimumPayment: 100, InterestRate: 20},
			{ID: 2, Type: "Car Loan", Principal: 5000, MinimumPayment: 100, InterestRate: 5},
		},
	}
}

func TestPlanService_PlanMatchesSimulate(t *testing.T) {
	svc := NewPlanService(seededLedger())

	got, err := svc.Plan(context.Background(), 200, core.Avalanche, false)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want, _ := Simulate([]core.Loan{
		{OutstandingBalance: 1000, AnnualRatePercent: 20, MinimumPayment: 100},
		{OutstandingBalance: 5000, AnnualRatePercent: 5, MinimumPayment: 100},
	}, 200, core.Avalanche)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() differs from Simulate() on the same snapshot")
	}
}

func TestPlanService_UsesCache(t *testing.T) {
	store := &countingStore{LocalStore: cache.NewLocalStore[core.SimulationResult](8, time.Minute)}
	svc := NewPlanService(seededLedger(), WithResultCache(store))
	ctx := context.Background()

	first, err := svc.Plan(ctx, 250, core.Snowball, true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Plan(ctx, 250, core.Snowball, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached result differs")
	}
	if store.sets != 1 {
		t.Errorf("cache sets = %d, want 1", store.sets)
	}
	if st := store.Stats(); st.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", st.Hits)
	}

	if _, err := svc.Plan(ctx, 300, core.Snowball, true); err != nil {
		t.Fatal(err)
	}
	if store.sets != 2 {
		t.Errorf("new budget should miss the cache, sets = %d", store.sets)
	}
}

func TestPlanService_CachedResultsAreCopies(t *testing.T) {
	store := cache.NewLocalStore[core.SimulationResult](8, time.Minute)
	svc := NewPlanService(seededLedger(), WithResultCache(store))
	ctx := context.Background()

	first, err := svc.Plan(ctx, 200, core.Avalanche, false)
	if err != nil {
		t.Fatal(err)
	}
	want := first.Clone()
	first.Trajectory[0].Balance = -1
	first.Loans[0].TotalPaid = -1

	second, err := svc.Plan(ctx, 200, core.Avalanche, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(second, want) {
		t.Fatal("mutating a returned result changed the cached plan")
	}
	second.Trajectory[0].Balance = -2

	third, err := svc.Plan(ctx, 200, core.Avalanche, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(third, want) {
		t.Error("mutating a cache hit changed the cached plan")
	}
	if st := store.Stats(); st.Hits != 2 {
		t.Errorf("cache hits = %d, want 2", st.Hits)
	}
}

func TestPlanService_Errors(t *testing.T) {
	ctx := context.Background()

	broken := &fakeLedger{listErr: errors.New("disk gone")}
	if _, err := NewPlanService(broken).Plan(ctx, 100, core.Avalanche, false); err == nil {
		t.Error("expected ledger error")
	}

	bad := &fakeLedger{loans: []core.LoanRecord{{ID: 1, Principal: 10, InterestRate: -1}}}
	if _, err := NewPlanService(bad).Plan(ctx, 100, core.Avalanche, false); !errors.Is(err, core.ErrInvalidLoan) {
		t.Errorf("expected ErrInvalidLoan, got %v", err)
	}

	if _, err := NewPlanService(seededLedger()).Plan(ctx, -1, core.Avalanche, false); !errors.Is(err, core.ErrInvalidBudget) {
		t.Errorf("expected ErrInvalidBudget, got %v", err)
	}

	if _, err := NewPlanService(seededLedger()).Refresh(ctx, 100, false); err == nil {
		t.Error("Refresh() without recorder should fail")
	}
}

func TestPlanService_Refresh(t *testing.T) {
	l := seededLedger()
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := NewPlanService(l, WithPlanRecorder(l))
	svc.now = func() time.Time { return at }

	snaps, err := svc.Refresh(context.Background(), 200, false)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(snaps) != 2 || len(l.plans) != 2 {
		t.Fatalf("snapshots = %d, recorded = %d", len(snaps), len(l.plans))
	}
	if snaps[0].Strategy != core.Avalanche || snaps[1].Strategy != core.Snowball {
		t.Errorf("strategies = %s, %s", snaps[0].Strategy, snaps[1].Strategy)
	}
	for _, s := range snaps {
		if s.LoanCount != 2 || s.Budget != 200 || !s.ComputedAt.Equal(at) || s.ID == 0 {
			t.Errorf("snapshot = %+v", s)
		}
		if s.MonthsToPayoff <= 0 || s.FinalBalance != 0 {
			t.Errorf("expected a payable plan, got %+v", s)
		}
	}
}

func TestPlanService_Compare(t *testing.T) {
	cmp, err := NewPlanService(seededLedger()).Compare(context.Background(), 200, false)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Avalanche.Strategy != core.Avalanche || cmp.Snowball.Strategy != core.Snowball {
		t.Errorf("unexpected strategies %s/%s", cmp.Avalanche.Strategy, cmp.Snowball.Strategy)
	}
	if cmp.InterestSaved < 0 {
		t.Errorf("InterestSaved = %v", cmp.InterestSaved)
	}
}
