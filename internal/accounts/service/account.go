package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/cryptox"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

// RegisterInput is a sign-up submission. Its fields mirror
// accountsdk.RegisterRequest so the shared validation rules apply.
type RegisterInput struct {
	Email             string
	Password          string
	FullName          string
	State             string
	Address           string
	PaymentID         string
	PaymentScreenshot string
}

// AccountService runs the registration workflow: sign-up, the approval
// gate on login, and administrative review.
type AccountService struct {
	Store    store.Store
	Hasher   cryptox.Hasher
	Signer   jwtx.Signer
	Issuer   string
	TokenTTL time.Duration

	// Now is the clock used for token timestamps. Defaults to time.Now.
	Now func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register validates the submission, hashes the password and stores a new
// pending account. The plaintext password is not kept anywhere.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	if fields := accountsdk.RegisterRequest(in).Validate(); fields != nil {
		return domain.Account{}, &ValidationError{Fields: fields}
	}

	_, err := s.Store.Accounts().GetAccountByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return domain.Account{}, ErrAccountExists
	case !errors.Is(err, store.ErrNotFound):
		return domain.Account{}, storeErr("lookup account", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.Account{}, &ValidationError{Fields: map[string]string{
				"password": fmt.Sprintf("must be no more than %d bytes", cryptox.MaxBcryptPasswordBytes),
			}}
		}
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.Store.Accounts().CreateAccount(ctx, domain.Account{
		Email:             in.Email,
		PasswordHash:      hash,
		FullName:          in.FullName,
		State:             in.State,
		Address:           in.Address,
		PaymentID:         in.PaymentID,
		PaymentScreenshot: in.PaymentScreenshot,
		Role:              domain.RoleUser,
	})
	if err != nil {
		// A concurrent registration for the same email can pass the lookup.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrAccountExists
		}
		return domain.Account{}, storeErr("create account", err)
	}

	l.Info("account registered", slog.String("account_id", account.ID))
	return account, nil
}

// GetAccount fetches an account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	a, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, storeErr("get account", err)
	}
	return a, nil
}

// GetAccountByEmail fetches an account by its exact email.
func (s *AccountService) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	a, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, storeErr("get account", err)
	}
	return a, nil
}

// ListPending returns registrations awaiting review, oldest first.
func (s *AccountService) ListPending(ctx context.Context, limit int) ([]domain.Account, error) {
	return s.ListByStatus(ctx, domain.PaymentPending, limit)
}

// ListByStatus returns accounts with the given payment status, oldest first.
func (s *AccountService) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Account, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "must be one of pending, approved, rejected"}}
	}
	accounts, err := s.Store.Accounts().ListAccountsByStatus(ctx, status, limit)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	return accounts, nil
}

// SetRole changes an account's role. Tokens already issued keep the role
// they were signed with until they expire.
func (s *AccountService) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return &ValidationError{Fields: map[string]string{"role": "must be user or admin"}}
	}
	if err := s.Store.Accounts().UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return storeErr("update role", err)
	}
	slogx.FromContext(ctx).Info("account role changed",
		slog.String("account_id", id),
		slog.String("role", string(role)),
	)
	return nil
}
