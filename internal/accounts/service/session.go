package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/pkg/cryptox"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

// Session is the result of a successful login.
type Session struct {
	Account   domain.Account
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an approved account and issues a bearer token.
//
// The checks run in a fixed order: unknown email, then the approval gate,
// then the password. An unapproved account is refused without its password
// ever being compared.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrAccountNotFound
		}
		return Session{}, storeErr("lookup account", err)
	}

	if e := account.Eligibility(); e != domain.EligibilityApproved {
		l.Info("login refused for unapproved account",
			slog.String("account_id", account.ID),
			slog.String("reason", string(e)),
		)
		return Session{}, &NotApprovedError{Reason: e}
	}

	if err := s.Hasher.Verify(password, account.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("account_id", account.ID), slog.Any("error", err))
		}
		return Session{}, ErrInvalidCredentials
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	claims := jwtx.NewSessionClaims(account.ID, account.Email, string(account.Role), s.Issuer, ttl, s.now())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}

	l.Info("login succeeded", slog.String("account_id", account.ID))
	return Session{
		Account:   account,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
