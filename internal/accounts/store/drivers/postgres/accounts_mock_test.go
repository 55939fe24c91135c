package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStoreFromDB(db), mock
}

var columns = []string{
	"id", "email", "password_hash", "full_name", "state", "address",
	"payment_id", "payment_screenshot", "payment_status", "is_approved", "role",
	"reviewed_at", "created_at", "updated_at",
}

func TestGetAccountByEmail_MapsRow(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"01J", "ada@example.com", "hash", "Ada", "NSW", "1 St",
			"", "", "rejected", false, "user",
			nil, now, now,
		))

	a, err := s.Accounts().GetAccountByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, "01J", a.ID)
	require.Equal(t, domain.PaymentRejected, a.PaymentStatus)
	require.Equal(t, domain.EligibilityRejected, a.Eligibility())
	require.Nil(t, a.ReviewedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByEmail_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM accounts WHERE email").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Accounts().GetAccountByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateAccount_UniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_accounts_email"})

	_, err := s.Accounts().CreateAccount(context.Background(), domain.Account{Email: "dup@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateAccount_OtherErrorsPassThrough(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("INSERT INTO accounts").WillReturnError(boom)

	_, err := s.Accounts().CreateAccount(context.Background(), domain.Account{Email: "a@example.com"})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUpdateReview_NoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("missing", "approved", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := s.Accounts().UpdateReview(context.Background(), "missing", domain.PaymentApproved, true)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReview_OnlyPendingRows(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND payment_status = 'pending' AND NOT is_approved")).
		WithArgs("01J", "rejected", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs("01J").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"01J", "ada@example.com", "hash", "Ada", "NSW", "1 St",
			"", "", "approved", true, "user",
			now, now, now,
		))

	err := s.Accounts().UpdateReview(context.Background(), "01J", domain.PaymentRejected, false)
	require.ErrorIs(t, err, store.ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx store.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrations_PropagatesError(t *testing.T) {
	s, _ := newMockStore(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("migrate failed")
	gooseUp = func(context.Context, *Store) error { return boom }

	require.ErrorIs(t, s.ApplyMigrations(), boom)
}
