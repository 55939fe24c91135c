package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNotPending    = errors.New("store: account already reviewed")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off it as methods so a Tx can hand out
// the same repositories bound to the transaction.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx exposes the repositories bound to one transaction. Commit and
// Rollback are driven by WithTx.
type Tx interface {
	Accounts() Accounts
}

type Accounts interface {
	// GetAccountByEmail is an exact, case-sensitive lookup.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// CreateAccount inserts a new account as pending and unapproved whatever
	// the draft says, assigning an ID when empty. A duplicate email returns
	// ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)

	// UpdateReview writes the payment status, approval flag and reviewed_at
	// of a pending account. It returns ErrNotPending when the account exists
	// but was already reviewed, so two racing reviews cannot both apply.
	UpdateReview(ctx context.Context, id string, status domain.PaymentStatus, approved bool) error

	UpdateRole(ctx context.Context, id string, role domain.Role) error

	// ListAccountsByStatus returns accounts oldest first. limit <= 0 means
	// no limit.
	ListAccountsByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Account, error)
}
