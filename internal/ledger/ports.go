// Package ledger defines the ports through which the application reads
// and writes the loan ledger and recorded plans.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"debtplan/internal/core"
)

// ErrNotFound is returned when a loan or plan does not exist.
var ErrNotFound = errors.New("not found")

// ErrReadOnly is returned by ledgers that cannot be modified.
var ErrReadOnly = errors.New("ledger is read-only")

// FindLoan returns the loan with id from a ledger snapshot.
func FindLoan(ctx context.Context, r LoanReader, id int64) (core.LoanRecord, error) {
	loans, err := r.ListLoans(ctx)
	if err != nil {
		return core.LoanRecord{}, err
	}
	for _, l := range loans {
		if l.ID == id {
			return l, nil
		}
	}
	return core.LoanRecord{}, fmt.Errorf("loan %d: %w", id, ErrNotFound)
}

// Ports for outbound adapters.
type (
	LoanReader interface {
		// ListLoans returns the current ledger snapshot ordered by ID.
		ListLoans(ctx context.Context) ([]core.LoanRecord, error)
	}

	LoanWriter interface {
		CreateLoan(ctx context.Context, r core.LoanRecord) (id int64, err error)
		// UpdateLoan replaces the loan with r.ID in place, keeping its ID
		// and CreatedAt. Missing loans yield ErrNotFound.
		UpdateLoan(ctx context.Context, r core.LoanRecord) error
		DeleteLoan(ctx context.Context, id int64) error
	}

	// PlanRecorder stores computed plan summaries.
	PlanRecorder interface {
		RecordPlan(ctx context.Context, s core.PlanSnapshot) (id int64, err error)
	}

	// PlanReader returns the most recent plan recorded for a strategy.
	PlanReader interface {
		LatestPlan(ctx context.Context, strategy core.Strategy) (core.PlanSnapshot, error)
	}

	// Ledger is the full read/write surface a backend offers.
	Ledger interface {
		LoanReader
		LoanWriter
		PlanRecorder
		PlanReader
	}
)
