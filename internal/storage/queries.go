package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const loanColumns = `id, loan_type, principal, amount_paid, emi_amount, interest_rate, tenure, start_date, description, created_at`

const createLoan = `INSERT INTO loans (
    loan_type, principal, amount_paid, emi_amount, interest_rate, tenure, start_date, description, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + loanColumns

type CreateLoanParams struct {
	LoanType     string
	Principal    float64
	AmountPaid   float64
	EmiAmount    float64
	InterestRate float64
	Tenure       int64
	StartDate    string
	Description  string
	CreatedAt    string
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (Loan, error) {
	row := q.db.QueryRowContext(ctx, createLoan,
		arg.LoanType,
		arg.Principal,
		arg.AmountPaid,
		arg.EmiAmount,
		arg.InterestRate,
		arg.Tenure,
		arg.StartDate,
		arg.Description,
		arg.CreatedAt,
	)
	return scanLoan(row)
}

const getLoan = `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`

func (q *Queries) GetLoan(ctx context.Context, id int64) (Loan, error) {
	return scanLoan(q.db.QueryRowContext(ctx, getLoan, id))
}

const listLoans = `SELECT ` + loanColumns + ` FROM loans ORDER BY id`

func (q *Queries) ListLoans(ctx context.Context) ([]Loan, error) {
	rows, err := q.db.QueryContext(ctx, listLoans)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Loan
	for rows.Next() {
		i, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateLoan = `UPDATE loans SET
    loan_type = ?, principal = ?, amount_paid = ?, emi_amount = ?, interest_rate = ?, tenure = ?, start_date = ?, description = ?
WHERE id = ?`

type UpdateLoanParams struct {
	ID           int64
	LoanType     string
	Principal    float64
	AmountPaid   float64
	EmiAmount    float64
	InterestRate float64
	Tenure       int64
	StartDate    string
	Description  string
}

func (q *Queries) UpdateLoan(ctx context.Context, arg UpdateLoanParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateLoan,
		arg.LoanType,
		arg.Principal,
		arg.AmountPaid,
		arg.EmiAmount,
		arg.InterestRate,
		arg.Tenure,
		arg.StartDate,
		arg.Description,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteLoan = `DELETE FROM loans WHERE id = ?`

func (q *Queries) DeleteLoan(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLoan, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countLoans = `SELECT COUNT(*) FROM loans`

func (q *Queries) CountLoans(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countLoans).Scan(&count)
	return count, err
}

const createPlanSnapshot = `INSERT INTO plan_snapshots (
    strategy, budget, cascade_surplus, months_to_payoff, total_interest, final_balance, trajectory, loan_count, computed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreatePlanSnapshotParams struct {
	Strategy       string
	Budget         float64
	Cascade        int64
	MonthsToPayoff int64
	TotalInterest  float64
	FinalBalance   float64
	Trajectory     string
	LoanCount      int64
	ComputedAt     string
}

func (q *Queries) CreatePlanSnapshot(ctx context.Context, arg CreatePlanSnapshotParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createPlanSnapshot,
		arg.Strategy,
		arg.Budget,
		arg.Cascade,
		arg.MonthsToPayoff,
		arg.TotalInterest,
		arg.FinalBalance,
		arg.Trajectory,
		arg.LoanCount,
		arg.ComputedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getLatestPlanSnapshot = `SELECT id, strategy, budget, cascade_surplus, months_to_payoff, total_interest, final_balance, trajectory, loan_count, computed_at
FROM plan_snapshots
WHERE strategy = ?
ORDER BY id DESC
LIMIT 1`

func (q *Queries) GetLatestPlanSnapshot(ctx context.Context, strategy string) (PlanSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestPlanSnapshot, strategy)
	var i PlanSnapshot
	err := row.Scan(
		&i.ID,
		&i.Strategy,
		&i.Budget,
		&i.Cascade,
		&i.MonthsToPayoff,
		&i.TotalInterest,
		&i.FinalBalance,
		&i.Trajectory,
		&i.LoanCount,
		&i.ComputedAt,
	)
	return i, err
}

const prunePlanSnapshots = `DELETE FROM plan_snapshots
WHERE strategy = ? AND id NOT IN (
    SELECT id FROM plan_snapshots WHERE strategy = ? ORDER BY id DESC LIMIT ?
)`

// PrunePlanSnapshots keeps only the newest keep snapshots of a strategy.
func (q *Queries) PrunePlanSnapshots(ctx context.Context, strategy string, keep int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, prunePlanSnapshots, strategy, strategy, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(s scanner) (Loan, error) {
	var i Loan
	err := s.Scan(
		&i.ID,
		&i.LoanType,
		&i.Principal,
		&i.AmountPaid,
		&i.EmiAmount,
		&i.InterestRate,
		&i.Tenure,
		&i.StartDate,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}
