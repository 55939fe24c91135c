package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

// Review records an administrator's decision on a pending registration.
// Accounts that were already approved or rejected are left untouched.
func (s *AccountService) Review(ctx context.Context, id string, decision domain.ReviewDecision) (domain.Account, error) {
	status, approved, ok := decision.Outcome()
	if !ok {
		return domain.Account{}, ErrInvalidDecision
	}

	var reviewed domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetAccountByID(ctx, id)
		if err != nil {
			return err
		}
		if a.IsApproved || a.PaymentStatus != domain.PaymentPending {
			return ErrAlreadyReviewed
		}

		if err := tx.Accounts().UpdateReview(ctx, id, status, approved); err != nil {
			return err
		}

		reviewed, err = tx.Accounts().GetAccountByID(ctx, id)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyReviewed), errors.Is(err, store.ErrNotPending):
		return domain.Account{}, ErrAlreadyReviewed
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, ErrAccountNotFound
	default:
		return domain.Account{}, storeErr("review account", err)
	}

	slogx.FromContext(ctx).Info("account reviewed",
		slog.String("account_id", reviewed.ID),
		slog.String("decision", string(decision)),
	)
	return reviewed, nil
}

// GrantAdmin gives an account the admin role and approves it if it is still
// pending. Both writes share one transaction.
func (s *AccountService) GrantAdmin(ctx context.Context, id string) (domain.Account, error) {
	var granted domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetAccountByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Accounts().UpdateRole(ctx, id, domain.RoleAdmin); err != nil {
			return err
		}
		if !a.IsApproved && a.PaymentStatus == domain.PaymentPending {
			if err := tx.Accounts().UpdateReview(ctx, id, domain.PaymentApproved, true); err != nil {
				return err
			}
		}

		granted, err = tx.Accounts().GetAccountByID(ctx, id)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotPending):
		return domain.Account{}, ErrAlreadyReviewed
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, ErrAccountNotFound
	default:
		return domain.Account{}, storeErr("grant admin", err)
	}

	slogx.FromContext(ctx).Info("account granted admin", slog.String("account_id", granted.ID))
	return granted, nil
}
