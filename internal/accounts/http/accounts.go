package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
)

type RegisterHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Create an account for an event attendee. The account starts pending and cannot log in until an administrator approves it.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.RegisterRequest	true	"Registration details"
//	@Success		201		{object}	accountsdk.RegisterResponse	"message, email, paymentStatus, role"
//	@Failure		400		{object}	accountsdk.ErrorResponse	"User already exists, or validation details"
//	@Failure		500		{object}	accountsdk.ErrorResponse	"error"
//	@Router			/v1/accounts [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.AccountService.Register(r.Context(), service.RegisterInput(req))
	if err != nil {
		if errors.Is(err, service.ErrAccountExists) {
			writeError(w, http.StatusBadRequest, msgUserExists)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, accountsdk.RegisterResponse{
		Message:       "Registration pending admin approval",
		Email:         account.Email,
		PaymentStatus: string(account.PaymentStatus),
		Role:          string(account.Role),
	})
}

type SessionHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Exchange credentials for a session token. Only approved accounts may log in.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	accountsdk.SessionResponse	"profile and token"
//	@Failure		400		{object}	accountsdk.ErrorResponse	"User not found or Invalid credentials"
//	@Failure		403		{object}	accountsdk.ErrorResponse	"registration pending or rejected"
//	@Failure		500		{object}	accountsdk.ErrorResponse	"error"
//	@Router			/v1/sessions [post].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fields := req.Validate(); fields != nil {
		writeValidationError(w, fields)
		return
	}

	sess, err := h.AccountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			writeError(w, http.StatusBadRequest, msgUserNotFound)
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, msgInvalidCreds)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	a := sess.Account
	httpx.WriteJSON(w, http.StatusOK, accountsdk.SessionResponse{
		ID:       a.ID,
		Email:    a.Email,
		FullName: a.FullName,
		State:    a.State,
		Address:  a.Address,
		Role:     string(a.Role),
		Token:    sess.Token,
	})
}

type MeHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Current account
//	@Description	Profile of the account the session token was issued to.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	accountsdk.Account			"profile"
//	@Failure		401	{object}	accountsdk.ErrorResponse	"missing or invalid token"
//	@Router			/v1/accounts/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	account, err := h.AccountService.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			// The token outlived its account.
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccountDTO(account))
}
