package postgres

import (
	"context"
	"database/sql"
	"time"
)

type dbtx interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

type accountRow struct {
	ID                string
	Email             string
	PasswordHash      string
	FullName          string
	State             string
	Address           string
	PaymentID         string
	PaymentScreenshot string
	PaymentStatus     string
	IsApproved        bool
	Role              string
	ReviewedAt        sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const accountColumns = `id, email, password_hash, full_name, state, address,
	payment_id, payment_screenshot, payment_status, is_approved, role,
	reviewed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (accountRow, error) {
	var r accountRow
	err := s.Scan(
		&r.ID, &r.Email, &r.PasswordHash, &r.FullName, &r.State, &r.Address,
		&r.PaymentID, &r.PaymentScreenshot, &r.PaymentStatus, &r.IsApproved, &r.Role,
		&r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func (q *queries) GetAccountByEmail(ctx context.Context, email string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (q *queries) GetAccountByID(ctx context.Context, id string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

const createAccount = `INSERT INTO accounts (
	id, email, password_hash, full_name, state, address,
	payment_id, payment_screenshot, payment_status, is_approved, role,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', FALSE, $9, $10, $10)
RETURNING ` + accountColumns

type createAccountParams struct {
	ID                string
	Email             string
	PasswordHash      string
	FullName          string
	State             string
	Address           string
	PaymentID         string
	PaymentScreenshot string
	Role              string
	Now               time.Time
}

func (q *queries) CreateAccount(ctx context.Context, p createAccountParams) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, createAccount,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.State, p.Address,
		p.PaymentID, p.PaymentScreenshot, p.Role, p.Now,
	))
}

const updateAccountReview = `UPDATE accounts
SET payment_status = $2, is_approved = $3, reviewed_at = $4, updated_at = $4
WHERE id = $1 AND payment_status = 'pending' AND NOT is_approved`

func (q *queries) UpdateAccountReview(ctx context.Context, id, status string, approved bool, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountReview, id, status, approved, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateAccountRole = `UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`

func (q *queries) UpdateAccountRole(ctx context.Context, id, role string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountRole, id, role, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listAccountsByStatus = `SELECT ` + accountColumns + ` FROM accounts
WHERE payment_status = $1
ORDER BY created_at, id
LIMIT $2`

func (q *queries) ListAccountsByStatus(ctx context.Context, status string, limit int) ([]accountRow, error) {
	// LIMIT NULL is no limit
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := q.db.QueryContext(ctx, listAccountsByStatus, status, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []accountRow
	for rows.Next() {
		r, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
