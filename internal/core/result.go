package core

import (
	"slices"
	"time"
)

// Unpayable is the MonthsToPayoff sentinel for plans that hit the month cap.
const Unpayable = -1

// BalancePoint is one month of a trajectory.
type BalancePoint struct {
	Month        int     `json:"month"`
	Balance      float64 `json:"balance"`
	InterestPaid float64 `json:"interest_paid"` // cumulative
}

// LoanOutcome reports how a single input loan fared. PaidOffMonth is -1
// when the loan still carried a balance at the end of the run.
type LoanOutcome struct {
	PaidOffMonth int     `json:"paid_off_month"`
	InterestPaid float64 `json:"interest_paid"`
	TotalPaid    float64 `json:"total_paid"`
}

type SimulationResult struct {
	Strategy          Strategy       `json:"strategy"`
	MonthsToPayoff    int            `json:"months_to_payoff"`
	TotalInterestPaid float64        `json:"total_interest_paid"`
	Trajectory        []BalancePoint `json:"trajectory"`
	Loans             []LoanOutcome  `json:"loans"`
}

// Payable reports whether every loan reached zero within the cap.
func (r SimulationResult) Payable() bool {
	return r.MonthsToPayoff != Unpayable
}

// Clone returns a copy that shares no slices with r.
func (r SimulationResult) Clone() SimulationResult {
	r.Trajectory = slices.Clone(r.Trajectory)
	r.Loans = slices.Clone(r.Loans)
	return r
}

// FinalBalance is the total balance at the last recorded month.
func (r SimulationResult) FinalBalance() float64 {
	if len(r.Trajectory) == 0 {
		return 0
	}
	return r.Trajectory[len(r.Trajectory)-1].Balance
}

// Comparison holds both strategies run over the same snapshot.
type Comparison struct {
	Avalanche     SimulationResult `json:"avalanche"`
	Snowball      SimulationResult `json:"snowball"`
	InterestSaved float64          `json:"interest_saved"`
	MonthsSaved   int              `json:"months_saved"`
}

// PlanSnapshot is a plan summary recorded by the worker.
type PlanSnapshot struct {
	ID                int64
	Strategy          Strategy
	Budget            float64
	Cascade           bool
	MonthsToPayoff    int
	TotalInterestPaid float64
	FinalBalance      float64
	Trajectory        []BalancePoint
	LoanCount         int
	ComputedAt        time.Time
}

// NewPlanSnapshot summarizes a result for persistence.
func NewPlanSnapshot(res SimulationResult, budget float64, cascade bool, loanCount int, at time.Time) PlanSnapshot {
	return PlanSnapshot{
		Strategy:          res.Strategy,
		Budget:            budget,
		Cascade:           cascade,
		MonthsToPayoff:    res.MonthsToPayoff,
		TotalInterestPaid: res.TotalInterestPaid,
		FinalBalance:      res.FinalBalance(),
		Trajectory:        res.Trajectory,
		LoanCount:         loanCount,
		ComputedAt:        at.UTC(),
	}
}
