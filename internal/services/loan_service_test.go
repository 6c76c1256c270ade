package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"debtplan/internal/amqp"
	"debtplan/internal/core"
	"debtplan/internal/ledger"
)

type fakeLedger struct {
	mu      sync.Mutex
	nextID  int64
	loans   []core.LoanRecord
	plans   []core.PlanSnapshot
	listErr error
	closed  bool
}

func (f *fakeLedger) ListLoans(context.Context) ([]core.LoanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.LoanRecord(nil), f.loans...), nil
}

func (f *fakeLedger) CreateLoan(_ context.Context, r core.LoanRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.loans = append(f.loans, r)
	return r.ID, nil
}

func (f *fakeLedger) UpdateLoan(_ context.Context, r core.LoanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.loans {
		if l.ID == r.ID {
			r.CreatedAt = l.CreatedAt
			f.loans[i] = r
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (f *fakeLedger) DeleteLoan(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.loans {
		if l.ID == id {
			f.loans = append(f.loans[:i], f.loans[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (f *fakeLedger) RecordPlan(_ context.Context, s core.PlanSnapshot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, s)
	return int64(len(f.plans)), nil
}

func (f *fakeLedger) Close() error {
	f.closed = true
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []amqp.LoanOp
	ids    []int64
	err    error
	closed bool
}

func (p *fakePublisher) PublishLoanChanged(_ context.Context, id int64, op amqp.LoanOp) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, op)
	p.ids = append(p.ids, id)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestLoanService_AddLoan(t *testing.T) {
	store := &fakeLedger{}
	pub := &fakePublisher{}
	svc := NewLoanService(store, pub)

	id, err := svc.AddLoan(context.Background(), core.LoanRecord{
		Principal:      5000,
		MinimumPayment: 200,
		InterestRate:   15,
		Description:    "  laptop  ",
	})
	if err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}
	if id != 1 {
		t.Errorf("AddLoan() id = %d", id)
	}
	if store.loans[0].Type != core.DefaultLoanType || store.loans[0].Description != "laptop" {
		t.Errorf("stored loan = %+v", store.loans[0])
	}
	if len(pub.sent) != 1 || pub.sent[0] != amqp.OpCreate || pub.ids[0] != 1 {
		t.Errorf("published = %v %v", pub.sent, pub.ids)
	}
}

func TestLoanService_AddLoanRejectsInvalid(t *testing.T) {
	store := &fakeLedger{}
	pub := &fakePublisher{}
	svc := NewLoanService(store, pub)

	_, err := svc.AddLoan(context.Background(), core.LoanRecord{Type: "Home Loan", Principal: 100, AmountPaid: 200})
	if !errors.Is(err, core.ErrPaidExceedsPrincipal) {
		t.Fatalf("AddLoan() error = %v", err)
	}
	if len(store.loans) != 0 || len(pub.sent) != 0 {
		t.Error("invalid loan must not be stored or published")
	}
}

func TestLoanService_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeLedger{}
	svc := NewLoanService(store, &fakePublisher{err: errors.New("connection refused")})

	if _, err := svc.AddLoan(context.Background(), core.LoanRecord{Type: "Gold Loan", Principal: 10}); err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}
	if len(store.loans) != 1 {
		t.Fatal("loan should be stored despite publish failure")
	}
}

func TestLoanService_DeleteLoan(t *testing.T) {
	store := &fakeLedger{}
	pub := &fakePublisher{}
	svc := NewLoanService(store, pub)
	ctx := context.Background()

	id, _ := svc.AddLoan(ctx, core.LoanRecord{Type: "Car Loan", Principal: 10})
	if err := svc.DeleteLoan(ctx, id); err != nil {
		t.Fatalf("DeleteLoan() error = %v", err)
	}
	if err := svc.DeleteLoan(ctx, id); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("DeleteLoan() twice error = %v, want ErrNotFound", err)
	}
	if len(pub.sent) != 2 || pub.sent[1] != amqp.OpDelete {
		t.Errorf("published = %v", pub.sent)
	}
}

func TestLoanService_UpdateLoan(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &fakeLedger{nextID: 1, loans: []core.LoanRecord{
		{ID: 1, Type: "Car Loan", Principal: 8000, MinimumPayment: 180, InterestRate: 9, CreatedAt: created},
	}}
	pub := &fakePublisher{}
	svc := NewLoanService(store, pub)
	ctx := context.Background()

	upd := core.LoanRecord{ID: 1, Principal: 8000, AmountPaid: 1500, MinimumPayment: 200, InterestRate: 8.5, Description: " refinanced "}
	if err := svc.UpdateLoan(ctx, upd); err != nil {
		t.Fatalf("UpdateLoan() error = %v", err)
	}
	got, err := svc.GetLoan(ctx, 1)
	if err != nil {
		t.Fatalf("GetLoan() error = %v", err)
	}
	if got.AmountPaid != 1500 || got.InterestRate != 8.5 || got.Type != core.DefaultLoanType || got.Description != "refinanced" {
		t.Errorf("updated loan = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if len(pub.sent) != 1 || pub.sent[0] != amqp.OpUpdate || pub.ids[0] != 1 {
		t.Errorf("published = %v %v", pub.sent, pub.ids)
	}

	if err := svc.UpdateLoan(ctx, core.LoanRecord{ID: 9, Type: "Car Loan", Principal: 1}); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("UpdateLoan(missing) error = %v, want ErrNotFound", err)
	}
	if err := svc.UpdateLoan(ctx, core.LoanRecord{ID: 1, Type: "Car Loan", Principal: 1, AmountPaid: 2}); !errors.Is(err, core.ErrPaidExceedsPrincipal) {
		t.Errorf("UpdateLoan(invalid) error = %v", err)
	}
	if _, err := svc.GetLoan(ctx, 9); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("GetLoan(missing) error = %v", err)
	}
	if len(pub.sent) != 1 {
		t.Errorf("failed updates must not publish, sent = %v", pub.sent)
	}
}

func TestLoanService_NilPublisher(t *testing.T) {
	svc := NewLoanService(&fakeLedger{}, nil)
	ctx := context.Background()

	if _, err := svc.AddLoan(ctx, core.LoanRecord{Type: "Car Loan", Principal: 10}); err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}
	ok, err := svc.RequestRefresh(ctx)
	if ok || err != nil {
		t.Errorf("RequestRefresh() = %v, %v", ok, err)
	}
}

func TestLoanService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := &LoanService{}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	t.Run("closes store and publisher", func(t *testing.T) {
		store, pub := &fakeLedger{}, &fakePublisher{}
		if err := NewLoanService(store, pub).Close(); err != nil {
			t.Fatal(err)
		}
		if !store.closed || !pub.closed {
			t.Errorf("closed store=%v publisher=%v", store.closed, pub.closed)
		}
	})
}
