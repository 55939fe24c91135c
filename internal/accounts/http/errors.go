package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

const (
	msgInternal         = "Internal server error"
	msgInvalidBody      = "Invalid request body"
	msgPendingApproval  = "Your registration is pending approval. Please wait for admin confirmation."
	msgRejected         = "Your registration has been rejected. Please contact support."
	msgUserExists       = "User already exists"
	msgUserNotFound     = "User not found"
	msgInvalidCreds     = "Invalid credentials"
	msgAccountNotFound  = "Account not found"
	msgAlreadyReviewed  = "Account has already been reviewed"
	msgInvalidDecision  = "Decision must be approve or reject"
	msgValidationFailed = "Validation failed"
)

func writeError(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, accountsdk.ErrorResponse{Error: msg})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, accountsdk.ErrorResponse{
		Error:   msgValidationFailed,
		Details: fields,
	})
}

// writeServiceError renders the errors every handler can hit. Anything it
// does not recognise is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *service.ValidationError
		nae  *service.NotApprovedError
	)
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr.Fields)
	case errors.As(err, &nae):
		msg := msgPendingApproval
		if nae.Reason == domain.EligibilityRejected {
			msg = msgRejected
		}
		httpx.WriteJSON(w, http.StatusForbidden, accountsdk.ErrorResponse{
			Error:  msg,
			Status: string(nae.Reason),
		})
	case errors.Is(err, service.ErrInvalidDecision):
		writeError(w, http.StatusBadRequest, msgInvalidDecision)
	case errors.Is(err, service.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, msgAlreadyReviewed)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, httpx.ErrUnsupportedMediaType) {
			code = http.StatusUnsupportedMediaType
		}
		writeError(w, code, msgInvalidBody)
		return false
	}
	return true
}

func toAccountDTO(a domain.Account) accountsdk.Account {
	return accountsdk.Account{
		ID:                a.ID,
		Email:             a.Email,
		FullName:          a.FullName,
		State:             a.State,
		Address:           a.Address,
		PaymentID:         a.PaymentID,
		PaymentScreenshot: a.PaymentScreenshot,
		PaymentStatus:     string(a.PaymentStatus),
		IsApproved:        a.IsApproved,
		Role:              string(a.Role),
		ReviewedAt:        a.ReviewedAt,
		CreatedAt:         a.CreatedAt,
	}
}
