// Package worker recomputes recorded payoff plans when the ledger changes
// and on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"debtplan/internal/amqp"
	"debtplan/internal/core"
)

// PlanRefresher recomputes and records plans for the current ledger.
type PlanRefresher interface {
	Refresh(ctx context.Context, budget float64, cascade bool) ([]core.PlanSnapshot, error)
}

// PlanWorker keeps recorded plans in step with the ledger. Refreshes are
// serialized so that a message and a scheduled run never overlap.
type PlanWorker struct {
	plans   PlanRefresher
	budget  float64
	cascade bool

	refreshMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
}

func NewPlanWorker(plans PlanRefresher, budget float64, cascade bool) *PlanWorker {
	return &PlanWorker{
		plans:   plans,
		budget:  budget,
		cascade: cascade,
	}
}

// HandleLoanChanged processes a single loan change message from AMQP.
func (w *PlanWorker) HandleLoanChanged(ctx context.Context, msg *amqp.LoanChangedMessage) error {
	slog.InfoContext(ctx, "Processing loan change",
		"id", msg.ID,
		"op", msg.Op,
		"timestamp", msg.Timestamp)

	if err := w.RefreshNow(ctx); err != nil {
		return fmt.Errorf("refresh after %s of loan %d: %w", msg.Op, msg.ID, err)
	}
	return nil
}

// RefreshNow recomputes both strategies immediately.
func (w *PlanWorker) RefreshNow(ctx context.Context) error {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	snaps, err := w.plans.Refresh(ctx, w.budget, w.cascade)
	if err != nil {
		return err
	}
	for _, s := range snaps {
		slog.DebugContext(ctx, "Plan recorded",
			"id", s.ID,
			"strategy", s.Strategy,
			"months", s.MonthsToPayoff,
			"interest", core.RoundCents(s.TotalInterestPaid))
	}
	return nil
}

// Start schedules periodic refreshes. schedule is a cron expression with a
// seconds field ("0 0 6 * * *") or a descriptor ("@hourly", "@every 10m").
func (w *PlanWorker) Start(ctx context.Context, schedule string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("plan worker already started")
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.RefreshNow(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled plan refresh failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	w.cron = c

	slog.InfoContext(ctx, "Plan refresh scheduled", "schedule", schedule)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (w *PlanWorker) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	slog.Info("Plan refresh schedule stopped")
}
