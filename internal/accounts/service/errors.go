package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
)

var (
	ErrAccountExists      = errors.New("account_exists")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrStoreUnavailable   = errors.New("store_unavailable")
	ErrAlreadyReviewed    = errors.New("already_reviewed")
	ErrInvalidDecision    = errors.New("invalid_decision")
)

// NotApprovedError is returned by Login for an account that has not been
// approved. Reason is either pending or rejected.
type NotApprovedError struct {
	Reason domain.Eligibility
}

func (e *NotApprovedError) Error() string {
	return "account not approved: " + string(e.Reason)
}

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
