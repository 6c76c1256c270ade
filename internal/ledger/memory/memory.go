// Package memory is an in-process ledger, optionally seeded from a loan file.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/ledger"
	"debtplan/internal/loanfile"
)

var _ ledger.Ledger = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	loans  []core.LoanRecord
	plans  []core.PlanSnapshot
}

// New returns a store holding a copy of loans. Records without an ID are
// numbered after the highest existing ID.
func New(loans []core.LoanRecord) *Store {
	s := &Store{}
	for _, l := range loans {
		if l.ID > s.nextID {
			s.nextID = l.ID
		}
	}
	for _, l := range loans {
		if l.ID == 0 {
			s.nextID++
			l.ID = s.nextID
		}
		s.loans = append(s.loans, l)
	}
	sort.SliceStable(s.loans, func(i, j int) bool { return s.loans[i].ID < s.loans[j].ID })
	return s
}

// NewFromFile seeds the store from the first loans.{yaml,yml,toml} found
// in dir. A directory without a seed file yields an empty store.
func NewFromFile(dir string) (*Store, error) {
	for _, name := range []string{"loans.yaml", "loans.yml", "loans.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		f, err := loanfile.Load(path)
		if err != nil {
			return nil, err
		}
		recs, err := f.Records()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return New(recs), nil
	}
	return New(nil), nil
}

// ListLoans implements ledger.LoanReader
func (s *Store) ListLoans(_ context.Context) ([]core.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LoanRecord(nil), s.loans...), nil
}

// CreateLoan implements ledger.LoanWriter
func (s *Store) CreateLoan(_ context.Context, r core.LoanRecord) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.loans = append(s.loans, r)
	return r.ID, nil
}

// UpdateLoan implements ledger.LoanWriter
func (s *Store) UpdateLoan(_ context.Context, r core.LoanRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.loans {
		if l.ID == r.ID {
			r.CreatedAt = l.CreatedAt
			s.loans[i] = r
			return nil
		}
	}
	return fmt.Errorf("loan %d: %w", r.ID, ledger.ErrNotFound)
}

// DeleteLoan implements ledger.LoanWriter
func (s *Store) DeleteLoan(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.loans {
		if l.ID == id {
			s.loans = append(s.loans[:i], s.loans[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("loan %d: %w", id, ledger.ErrNotFound)
}

// RecordPlan implements ledger.PlanRecorder
func (s *Store) RecordPlan(_ context.Context, p core.PlanSnapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = int64(len(s.plans) + 1)
	if p.ComputedAt.IsZero() {
		p.ComputedAt = time.Now().UTC()
	}
	s.plans = append(s.plans, p)
	return p.ID, nil
}

// LatestPlan implements ledger.PlanReader
func (s *Store) LatestPlan(_ context.Context, strategy core.Strategy) (core.PlanSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.plans) - 1; i >= 0; i-- {
		if s.plans[i].Strategy == strategy {
			return s.plans[i], nil
		}
	}
	return core.PlanSnapshot{}, fmt.Errorf("plan %s: %w", strategy, ledger.ErrNotFound)
}
