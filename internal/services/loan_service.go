package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"debtplan/internal/amqp"
	"debtplan/internal/core"
	"debtplan/internal/ledger"
)

// LoanStore is the ledger surface LoanService writes through.
type LoanStore interface {
	ledger.LoanReader
	ledger.LoanWriter
}

// LoanPublisher announces ledger changes to the plan worker.
type LoanPublisher interface {
	PublishLoanChanged(ctx context.Context, id int64, op amqp.LoanOp) error
	Close() error
}

// LoanService orchestrates loan operations across the ledger and AMQP.
type LoanService struct {
	store     LoanStore
	publisher LoanPublisher
}

// NewLoanService builds the service. publisher may be nil, in which case
// change notifications are skipped.
func NewLoanService(store LoanStore, publisher LoanPublisher) *LoanService {
	return &LoanService{
		store:     store,
		publisher: publisher,
	}
}

// AddLoan validates and stores a loan, then notifies the worker.
func (s *LoanService) AddLoan(ctx context.Context, rec core.LoanRecord) (int64, error) {
	if strings.TrimSpace(rec.Type) == "" {
		rec.Type = core.DefaultLoanType
	}
	rec.Description = strings.TrimSpace(rec.Description)
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateLoan(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save loan: %w", err)
	}

	// The loan is saved; a lost notification only delays the next plan refresh.
	if err := s.publish(ctx, id, amqp.OpCreate); err != nil {
		slog.ErrorContext(ctx, "Failed to publish loan change", "id", id, "op", amqp.OpCreate, "error", err)
	}
	return id, nil
}

func (s *LoanService) ListLoans(ctx context.Context) ([]core.LoanRecord, error) {
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

// GetLoan returns a single ledger entry.
func (s *LoanService) GetLoan(ctx context.Context, id int64) (core.LoanRecord, error) {
	return ledger.FindLoan(ctx, s.store, id)
}

// UpdateLoan edits a loan in place and notifies the worker.
func (s *LoanService) UpdateLoan(ctx context.Context, rec core.LoanRecord) error {
	if strings.TrimSpace(rec.Type) == "" {
		rec.Type = core.DefaultLoanType
	}
	rec.Description = strings.TrimSpace(rec.Description)
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateLoan(ctx, rec); err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if err := s.publish(ctx, rec.ID, amqp.OpUpdate); err != nil {
		slog.ErrorContext(ctx, "Failed to publish loan change", "id", rec.ID, "op", amqp.OpUpdate, "error", err)
	}
	return nil
}

// DeleteLoan removes a loan and notifies the worker.
func (s *LoanService) DeleteLoan(ctx context.Context, id int64) error {
	if err := s.store.DeleteLoan(ctx, id); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if err := s.publish(ctx, id, amqp.OpDelete); err != nil {
		slog.ErrorContext(ctx, "Failed to publish loan change", "id", id, "op", amqp.OpDelete, "error", err)
	}
	return nil
}

// RequestRefresh asks the worker to recompute plans. Without a publisher
// it reports false.
func (s *LoanService) RequestRefresh(ctx context.Context) (bool, error) {
	if s.publisher == nil {
		return false, nil
	}
	if err := s.publisher.PublishLoanChanged(ctx, 0, amqp.OpRefresh); err != nil {
		return false, fmt.Errorf("request refresh: %w", err)
	}
	return true, nil
}

func (s *LoanService) publish(ctx context.Context, id int64, op amqp.LoanOp) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping loan change message", "id", id)
		return nil
	}
	return s.publisher.PublishLoanChanged(ctx, id, op)
}

// Close closes the ledger (when closable) and the publisher.
func (s *LoanService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close loan service: %v", errs)
	}
	return nil
}
