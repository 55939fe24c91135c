package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

// maxListLimit caps a single page of the admin listing.
const maxListLimit = 500

type AdminHandler struct {
	AccountService *service.AccountService
}

// HandleList godoc
//
//	@Summary		List accounts
//	@Description	Accounts with the given registration status, oldest first. Defaults to the pending review queue.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			status	query		string					false	"pending, approved or rejected"	default(pending)
//	@Param			limit	query		int						false	"maximum number of accounts"	default(100)
//	@Success		200		{object}	accountsdk.AccountList	"accounts"
//	@Failure		400		{object}	accountsdk.ErrorResponse
//	@Failure		401		{object}	accountsdk.ErrorResponse
//	@Failure		403		{object}	accountsdk.ErrorResponse
//	@Router			/v1/admin/accounts [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := domain.PaymentStatus(q.Get("status"))
	if status == "" {
		status = domain.PaymentPending
	}

	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeValidationError(w, map[string]string{"limit": "must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	accounts, err := h.AccountService.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := accountsdk.AccountList{Accounts: make([]accountsdk.Account, 0, len(accounts))}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, toAccountDTO(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleReview godoc
//
//	@Summary		Review a registration
//	@Description	Approve or reject a pending registration. Accounts that were already reviewed are not changed.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string						true	"Account ID"
//	@Param			request	body		accountsdk.ReviewRequest	true	"Decision"
//	@Success		200		{object}	accountsdk.Account			"reviewed account"
//	@Failure		400		{object}	accountsdk.ErrorResponse
//	@Failure		401		{object}	accountsdk.ErrorResponse
//	@Failure		403		{object}	accountsdk.ErrorResponse
//	@Failure		404		{object}	accountsdk.ErrorResponse
//	@Failure		409		{object}	accountsdk.ErrorResponse
//	@Router			/v1/admin/accounts/{id}/review [post].
func (h *AdminHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fields := req.Validate(); fields != nil {
		writeValidationError(w, fields)
		return
	}

	id := r.PathValue("id")
	account, err := h.AccountService.Review(r.Context(), id, domain.ReviewDecision(req.Decision))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, msgAccountNotFound)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	reviewer, _ := httpx.AccountIDFromContext(r.Context())
	slogx.FromContext(r.Context()).Info("registration reviewed",
		"account_id", account.ID,
		"reviewer_id", reviewer,
		"decision", req.Decision,
	)
	httpx.WriteJSON(w, http.StatusOK, toAccountDTO(account))
}
