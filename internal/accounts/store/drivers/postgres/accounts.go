package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/pkg/idx"
)

type accountsRepo struct {
	q *queries
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row, err := r.q.GetAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row, err := r.q.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if a.ID == "" {
		a.ID = idx.New().String()
	}
	if a.Role == "" {
		a.Role = domain.RoleUser
	}

	row, err := r.q.CreateAccount(ctx, createAccountParams{
		ID:                a.ID,
		Email:             a.Email,
		PasswordHash:      a.PasswordHash,
		FullName:          a.FullName,
		State:             a.State,
		Address:           a.Address,
		PaymentID:         a.PaymentID,
		PaymentScreenshot: a.PaymentScreenshot,
		Role:              string(a.Role),
		Now:               time.Now().UTC(),
	})
	if err != nil {
		return domain.Account{}, mapConstraint(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) UpdateReview(ctx context.Context, id string, status domain.PaymentStatus, approved bool) error {
	n, err := r.q.UpdateAccountReview(ctx, id, string(status), approved, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if n == 0 {
		if _, err := r.GetAccountByID(ctx, id); err != nil {
			return err
		}
		return store.ErrNotPending
	}
	return nil
}

func (r *accountsRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	n, err := r.q.UpdateAccountRole(ctx, id, string(role), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) ListAccountsByStatus(
	ctx context.Context,
	status domain.PaymentStatus,
	limit int,
) ([]domain.Account, error) {
	rows, err := r.q.ListAccountsByStatus(ctx, string(status), limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAccount(row))
	}
	return out, nil
}

func mapAccount(row accountRow) domain.Account {
	return domain.Account{
		ID:                row.ID,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		FullName:          row.FullName,
		State:             row.State,
		Address:           row.Address,
		PaymentID:         row.PaymentID,
		PaymentScreenshot: row.PaymentScreenshot,
		PaymentStatus:     domain.PaymentStatus(row.PaymentStatus),
		IsApproved:        row.IsApproved,
		Role:              domain.Role(row.Role),
		ReviewedAt:        mapNullTimePtr(row.ReviewedAt),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
