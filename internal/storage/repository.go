package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/ledger"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for missing loans and plan snapshots.
var ErrNotFound = ledger.ErrNotFound

// DefaultSnapshotRetention is how many snapshots per strategy RecordPlan keeps.
const DefaultSnapshotRetention = 50

type SQLiteRepository struct {
	db        *sql.DB
	queries   *Queries
	retention int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:        db,
		queries:   New(db),
		retention: DefaultSnapshotRetention,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetSnapshotRetention changes how many snapshots per strategy are kept.
// Values below 1 keep the default.
func (r *SQLiteRepository) SetSnapshotRetention(n int) {
	if n < 1 {
		n = DefaultSnapshotRetention
	}
	r.retention = int64(n)
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateLoan implements ledger.LoanWriter
func (r *SQLiteRepository) CreateLoan(ctx context.Context, rec core.LoanRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	row, err := r.queries.CreateLoan(ctx, CreateLoanParams{
		LoanType:     rec.Type,
		Principal:    rec.Principal,
		AmountPaid:   rec.AmountPaid,
		EmiAmount:    rec.MinimumPayment,
		InterestRate: rec.InterestRate,
		Tenure:       int64(rec.TenureMonths),
		StartDate:    rec.StartDate.String(),
		Description:  rec.Description,
		CreatedAt:    created.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("create loan: %w", err)
	}

	slog.InfoContext(ctx, "Loan saved to SQLite",
		"id", row.ID,
		"type", row.LoanType,
		"principal", row.Principal,
		"interest_rate", row.InterestRate)

	return row.ID, nil
}

// GetLoan returns a single loan or ErrNotFound.
func (r *SQLiteRepository) GetLoan(ctx context.Context, id int64) (core.LoanRecord, error) {
	row, err := r.queries.GetLoan(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LoanRecord{}, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.LoanRecord{}, fmt.Errorf("get loan %d: %w", id, err)
	}
	return loanFromRow(row)
}

// ListLoans implements ledger.LoanReader
func (r *SQLiteRepository) ListLoans(ctx context.Context) ([]core.LoanRecord, error) {
	rows, err := r.queries.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	out := make([]core.LoanRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := loanFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpdateLoan implements ledger.LoanWriter
func (r *SQLiteRepository) UpdateLoan(ctx context.Context, rec core.LoanRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateLoan(ctx, UpdateLoanParams{
		ID:           rec.ID,
		LoanType:     rec.Type,
		Principal:    rec.Principal,
		AmountPaid:   rec.AmountPaid,
		EmiAmount:    rec.MinimumPayment,
		InterestRate: rec.InterestRate,
		Tenure:       int64(rec.TenureMonths),
		StartDate:    rec.StartDate.String(),
		Description:  rec.Description,
	})
	if err != nil {
		return fmt.Errorf("update loan %d: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("loan %d: %w", rec.ID, ErrNotFound)
	}
	slog.InfoContext(ctx, "Loan updated in SQLite", "id", rec.ID, "type", rec.Type)
	return nil
}

// DeleteLoan implements ledger.LoanWriter
func (r *SQLiteRepository) DeleteLoan(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteLoan(ctx, id)
	if err != nil {
		return fmt.Errorf("delete loan %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Loan deleted from SQLite", "id", id)
	return nil
}

// CountLoans returns the number of loans in the ledger.
func (r *SQLiteRepository) CountLoans(ctx context.Context) (int64, error) {
	n, err := r.queries.CountLoans(ctx)
	if err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

// RecordPlan implements ledger.PlanRecorder. Older snapshots beyond the
// retention window are pruned in the same transaction.
func (r *SQLiteRepository) RecordPlan(ctx context.Context, s core.PlanSnapshot) (int64, error) {
	traj, err := json.Marshal(s.Trajectory)
	if err != nil {
		return 0, fmt.Errorf("marshal trajectory: %w", err)
	}
	computed := s.ComputedAt
	if computed.IsZero() {
		computed = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	id, err := q.CreatePlanSnapshot(ctx, CreatePlanSnapshotParams{
		Strategy:       string(s.Strategy),
		Budget:         s.Budget,
		Cascade:        boolToInt(s.Cascade),
		MonthsToPayoff: int64(s.MonthsToPayoff),
		TotalInterest:  s.TotalInterestPaid,
		FinalBalance:   s.FinalBalance,
		Trajectory:     string(traj),
		LoanCount:      int64(s.LoanCount),
		ComputedAt:     computed.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return 0, fmt.Errorf("create plan snapshot: %w", err)
	}
	if r.retention > 0 {
		if _, err := q.PrunePlanSnapshots(ctx, string(s.Strategy), r.retention); err != nil {
			return 0, fmt.Errorf("prune plan snapshots: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit plan snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Plan snapshot recorded",
		"id", id,
		"strategy", s.Strategy,
		"months", s.MonthsToPayoff,
		"loans", s.LoanCount)
	return id, nil
}

// LatestPlan implements ledger.PlanReader
func (r *SQLiteRepository) LatestPlan(ctx context.Context, strategy core.Strategy) (core.PlanSnapshot, error) {
	row, err := r.queries.GetLatestPlanSnapshot(ctx, string(strategy))
	if errors.Is(err, sql.ErrNoRows) {
		return core.PlanSnapshot{}, fmt.Errorf("plan %s: %w", strategy, ErrNotFound)
	}
	if err != nil {
		return core.PlanSnapshot{}, fmt.Errorf("get latest plan: %w", err)
	}

	var traj []core.BalancePoint
	if err := json.Unmarshal([]byte(row.Trajectory), &traj); err != nil {
		return core.PlanSnapshot{}, fmt.Errorf("decode trajectory of plan %d: %w", row.ID, err)
	}
	computed, err := time.Parse(time.RFC3339Nano, row.ComputedAt)
	if err != nil {
		return core.PlanSnapshot{}, fmt.Errorf("parse computed_at of plan %d: %w", row.ID, err)
	}
	return core.PlanSnapshot{
		ID:                row.ID,
		Strategy:          core.Strategy(row.Strategy),
		Budget:            row.Budget,
		Cascade:           row.Cascade != 0,
		MonthsToPayoff:    int(row.MonthsToPayoff),
		TotalInterestPaid: row.TotalInterest,
		FinalBalance:      row.FinalBalance,
		Trajectory:        traj,
		LoanCount:         int(row.LoanCount),
		ComputedAt:        computed,
	}, nil
}

func loanFromRow(row Loan) (core.LoanRecord, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.LoanRecord{}, fmt.Errorf("loan %d: %w", row.ID, err)
	}
	created, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return core.LoanRecord{}, fmt.Errorf("loan %d: parse created_at: %w", row.ID, err)
	}
	return core.LoanRecord{
		ID:             row.ID,
		Type:           row.LoanType,
		Principal:      row.Principal,
		AmountPaid:     row.AmountPaid,
		MinimumPayment: row.EmiAmount,
		InterestRate:   row.InterestRate,
		TenureMonths:   int(row.Tenure),
		StartDate:      start,
		Description:    row.Description,
		CreatedAt:      created,
	}, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
