package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
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

// accountRow mirrors the accounts table.
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
		&r.ID,
		&r.Email,
		&r.PasswordHash,
		&r.FullName,
		&r.State,
		&r.Address,
		&r.PaymentID,
		&r.PaymentScreenshot,
		&r.PaymentStatus,
		&r.IsApproved,
		&r.Role,
		&r.ReviewedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

const getAccountByEmail = `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`

func (q *queries) GetAccountByEmail(ctx context.Context, email string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByEmail, email))
}

const getAccountByID = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *queries) GetAccountByID(ctx context.Context, id string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByID, id))
}

const createAccount = `INSERT INTO accounts (
	id, email, password_hash, full_name, state, address,
	payment_id, payment_screenshot, payment_status, is_approved, role,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', 0, ?, ?, ?)`

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

func (q *queries) CreateAccount(ctx context.Context, p createAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.FullName,
		p.State,
		p.Address,
		p.PaymentID,
		p.PaymentScreenshot,
		p.Role,
		p.Now,
		p.Now,
	)
	return err
}

const updateAccountReview = `UPDATE accounts
SET payment_status = ?, is_approved = ?, reviewed_at = ?, updated_at = ?
WHERE id = ? AND payment_status = 'pending' AND is_approved = 0`

func (q *queries) UpdateAccountReview(ctx context.Context, id, status string, approved bool, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountReview, status, approved, now, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateAccountRole = `UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateAccountRole(ctx context.Context, id, role string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAccountRole, role, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listAccountsByStatus = `SELECT ` + accountColumns + ` FROM accounts
WHERE payment_status = ?
ORDER BY created_at, id
LIMIT ?`

func (q *queries) ListAccountsByStatus(ctx context.Context, status string, limit int) ([]accountRow, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := q.db.QueryContext(ctx, listAccountsByStatus, status, limit)
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
