package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func draft(email string) domain.Account {
	return domain.Account{
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		FullName:     "Ada Lovelace",
		State:        "NSW",
		Address:      "1 Example St",
		PaymentID:    "PAY-1",
	}
}

func TestCreateAccountForcesPending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d := draft("ada@example.com")
	d.PaymentStatus = domain.PaymentApproved
	d.IsApproved = true

	got, err := s.Accounts().CreateAccount(ctx, d)
	require.NoError(t, err)

	require.NotEmpty(t, got.ID)
	require.Equal(t, domain.PaymentPending, got.PaymentStatus)
	require.False(t, got.IsApproved)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Nil(t, got.ReviewedAt)
	require.False(t, got.CreatedAt.IsZero())

	byEmail, err := s.Accounts().GetAccountByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, got.ID, byEmail.ID)
	require.Equal(t, d.PasswordHash, byEmail.PasswordHash)
	require.Equal(t, "PAY-1", byEmail.PaymentID)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Accounts().CreateAccount(ctx, draft("dup@example.com"))
	require.NoError(t, err)

	_, err = s.Accounts().CreateAccount(ctx, draft("dup@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateAccountConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Accounts().CreateAccount(ctx, draft("race@example.com"))
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrAlreadyExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, created)
}

func TestEmailLookupIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Accounts().CreateAccount(ctx, draft("Case@Example.com"))
	require.NoError(t, err)

	_, err = s.Accounts().GetAccountByEmail(ctx, "case@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAccountNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Accounts().GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Accounts().GetAccountByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateReviewAndRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Accounts().CreateAccount(ctx, draft("review@example.com"))
	require.NoError(t, err)

	require.NoError(t, s.Accounts().UpdateReview(ctx, a.ID, domain.PaymentApproved, true))
	require.NoError(t, s.Accounts().UpdateRole(ctx, a.ID, domain.RoleAdmin))

	got, err := s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentApproved, got.PaymentStatus)
	require.True(t, got.IsApproved)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.NotNil(t, got.ReviewedAt)
	require.Equal(t, domain.EligibilityApproved, got.Eligibility())

	require.ErrorIs(t, s.Accounts().UpdateReview(ctx, a.ID, domain.PaymentRejected, false), store.ErrNotPending)
	got, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentApproved, got.PaymentStatus, "reviewed accounts are not overwritten")

	require.ErrorIs(t, s.Accounts().UpdateReview(ctx, "missing", domain.PaymentRejected, false), store.ErrNotFound)
	require.ErrorIs(t, s.Accounts().UpdateRole(ctx, "missing", domain.RoleUser), store.ErrNotFound)
}

func TestListAccountsByStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []string
	for i := range 3 {
		a, err := s.Accounts().CreateAccount(ctx, draft(fmt.Sprintf("user%d@example.com", i)))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	require.NoError(t, s.Accounts().UpdateReview(ctx, ids[1], domain.PaymentRejected, false))

	pending, err := s.Accounts().ListAccountsByStatus(ctx, domain.PaymentPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, ids[0], pending[0].ID, "oldest first")
	require.Equal(t, ids[2], pending[1].ID)

	limited, err := s.Accounts().ListAccountsByStatus(ctx, domain.PaymentPending, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	rejected, err := s.Accounts().ListAccountsByStatus(ctx, domain.PaymentRejected, 10)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Accounts().CreateAccount(ctx, draft("tx@example.com")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Accounts().GetAccountByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Accounts().CreateAccount(ctx, draft("tx@example.com"))
		return err
	}))

	_, err = s.Accounts().GetAccountByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestInMemoryStore(t *testing.T) {
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ApplyMigrations())
	_, err = s.Accounts().CreateAccount(context.Background(), draft("mem@example.com"))
	require.NoError(t, err)
}
