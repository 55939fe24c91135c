package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/cryptox"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testIssuer = "test-issuer"

type testEnv struct {
	router *Router
	svc    *service.AccountService
	store  *sqlite.Store
	km     *jwtx.KeyManager
}

func newTestEnv(t *testing.T, algorithm string) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: algorithm,
		Issuer:    testIssuer,
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)

	svc := &service.AccountService{
		Store:    st,
		Hasher:   cryptox.BcryptHasher{Cost: bcrypt.MinCost},
		Signer:   km.Signer,
		Issuer:   testIssuer,
		TokenTTL: jwtx.DefaultSessionTTL,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	metrics, err := httpx.NewMetrics(httpx.MetricsOptions{Registerer: reg})
	require.NoError(t, err)

	r := NewRouter(km.KeySet, km.Verifier, "test", st, logger)
	r.AccountService = svc
	r.Metrics = metrics
	r.Gatherer = reg

	loose := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	r.RateLimits = RateLimits{Register: loose, Login: loose, Account: loose, Admin: loose, Public: loose}
	r.ApplyRoutes()

	return &testEnv{router: r, svc: svc, store: st, km: km}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func registration(email string) accountsdk.RegisterRequest {
	return accountsdk.RegisterRequest{
		Email:             email,
		Password:          "Secret1!",
		FullName:          "Ada Lovelace",
		State:             "NSW",
		Address:           "1 Example St",
		PaymentID:         "PAY-42",
		PaymentScreenshot: "uploads/pay-42.png",
	}
}

// adminToken creates an approved admin account and logs it in.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	a, err := e.svc.Register(ctx, service.RegisterInput(registration("admin@example.com")))
	require.NoError(t, err)
	require.NoError(t, e.svc.SetRole(ctx, a.ID, domain.RoleAdmin))
	_, err = e.svc.Review(ctx, a.ID, domain.DecisionApprove)
	require.NoError(t, err)

	sess, err := e.svc.Login(ctx, "admin@example.com", "Secret1!")
	require.NoError(t, err)
	return sess.Token
}

func TestRegistrationApprovalLoginFlow(t *testing.T) {
	env := newTestEnv(t, jwtx.AlgorithmHS256)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/v1/accounts", "", registration("a@x.io"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[accountsdk.RegisterResponse](t, rec)
	require.Equal(t, "Registration pending admin approval", reg.Message)
	require.Equal(t, "a@x.io", reg.Email)
	require.Equal(t, accountsdk.StatusPending, reg.PaymentStatus)
	require.Equal(t, "user", reg.Role)
	require.NotContains(t, rec.Body.String(), "Secret1!")

	rec = env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "a@x.io", Password: "Secret1!"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	errResp := decode[accountsdk.ErrorResponse](t, rec)
	require.Equal(t, "pending", errResp.Status)
	require.Equal(t, msgPendingApproval, errResp.Error)

	rec = env.do(t, http.MethodGet, "/v1/admin/accounts?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[accountsdk.AccountList](t, rec)
	require.Len(t, list.Accounts, 1)
	id := list.Accounts[0].ID

	rec = env.do(t, http.MethodPost, "/v1/admin/accounts/"+id+"/review", admin, accountsdk.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewed := decode[accountsdk.Account](t, rec)
	require.True(t, reviewed.IsApproved)
	require.Equal(t, accountsdk.StatusApproved, reviewed.PaymentStatus)

	rec = env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "a@x.io", Password: "Secret1!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decode[accountsdk.SessionResponse](t, rec)
	require.Equal(t, id, sess.ID)
	require.Equal(t, "Ada Lovelace", sess.FullName)
	require.Equal(t, "NSW", sess.State)
	require.Equal(t, "1 Example St", sess.Address)
	require.NotEmpty(t, sess.Token)

	claims, err := env.km.Verifier.Verify(sess.Token)
	require.NoError(t, err)
	require.Equal(t, id, claims.Subject)

	rec = env.do(t, http.MethodGet, "/v1/accounts/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[accountsdk.Account](t, rec)
	require.Equal(t, "a@x.io", me.Email)
	require.NotContains(t, rec.Body.String(), "$2a$")
}

func TestRegisterErrors(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/v1/accounts", "", registration("dup@x.io"))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("duplicate email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/accounts", "", registration("dup@x.io"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, msgUserExists, decode[accountsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("validation details", func(t *testing.T) {
		in := registration("bad")
		in.Password = "short"
		rec := env.do(t, http.MethodPost, "/v1/accounts", "", in)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[accountsdk.ErrorResponse](t, rec)
		require.Contains(t, resp.Details, "email")
		require.Contains(t, resp.Details, "password")
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		in := registration("long@x.io")
		in.Password = "Aa1!" + strings.Repeat("a", 76)
		rec := env.do(t, http.MethodPost, "/v1/accounts", "", in)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, decode[accountsdk.ErrorResponse](t, rec).Details, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", strings.NewReader("email=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLoginErrors(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "ghost@x.io", Password: "Secret1!"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgUserNotFound, decode[accountsdk.ErrorResponse](t, rec).Error)

	a, err := env.svc.Register(ctx, service.RegisterInput(registration("r@x.io")))
	require.NoError(t, err)
	_, err = env.svc.Review(ctx, a.ID, domain.DecisionReject)
	require.NoError(t, err)

	// Rejected wins over a wrong password.
	rec = env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "r@x.io", Password: "nope"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode[accountsdk.ErrorResponse](t, rec)
	require.Equal(t, "rejected", resp.Status)
	require.Equal(t, msgRejected, resp.Error)

	b, err := env.svc.Register(ctx, service.RegisterInput(registration("ok@x.io")))
	require.NoError(t, err)
	_, err = env.svc.Review(ctx, b.ID, domain.DecisionApprove)
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "ok@x.io", Password: "Wrong1!!"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, msgInvalidCreds, decode[accountsdk.ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "ok@x.io"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[accountsdk.ErrorResponse](t, rec).Details, "password")
}

func TestLegacyPaths(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/users/register", "", registration("legacy@x.io"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/login", "", accountsdk.LoginRequest{Email: "legacy@x.io", Password: "Secret1!"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, env.store.Close())

	rec := env.do(t, http.MethodPost, "/v1/sessions", "", accountsdk.LoginRequest{Email: "a@x.io", Password: "Secret1!"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, msgInternal, decode[accountsdk.ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready := decode[accountsdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", ready.Status)
	require.Equal(t, "error", ready.Checks["database"], "driver detail stays in the logs")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	rec := env.do(t, http.MethodGet, "/v1/admin/accounts", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	a, err := env.svc.Register(ctx, service.RegisterInput(registration("user@x.io")))
	require.NoError(t, err)
	_, err = env.svc.Review(ctx, a.ID, domain.DecisionApprove)
	require.NoError(t, err)
	sess, err := env.svc.Login(ctx, "user@x.io", "Secret1!")
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/v1/admin/accounts", sess.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/admin/accounts/"+a.ID+"/review", sess.Token, accountsdk.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminReviewErrors(t *testing.T) {
	env := newTestEnv(t, "")
	admin := env.adminToken(t)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/v1/admin/accounts/missing/review", admin, accountsdk.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	a, err := env.svc.Register(ctx, service.RegisterInput(registration("p@x.io")))
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/v1/admin/accounts/"+a.ID+"/review", admin, accountsdk.ReviewRequest{Decision: "maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[accountsdk.ErrorResponse](t, rec).Details, "decision")

	rec = env.do(t, http.MethodPost, "/v1/admin/accounts/"+a.ID+"/review", admin, accountsdk.ReviewRequest{Decision: "reject"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/admin/accounts/"+a.ID+"/review", admin, accountsdk.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/admin/accounts?status=rejected", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[accountsdk.AccountList](t, rec).Accounts, 1)

	rec = env.do(t, http.MethodGet, "/v1/admin/accounts?status=paid", admin, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/admin/accounts?limit=-1", admin, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemEndpoints(t *testing.T) {
	t.Run("hs256 publishes no keys", func(t *testing.T) {
		env := newTestEnv(t, jwtx.AlgorithmHS256)
		rec := env.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, decode[jwtx.JWKS](t, rec).Keys)
	})

	env := newTestEnv(t, jwtx.AlgorithmEdDSA)

	t.Run("eddsa publishes its key", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		keys := decode[jwtx.JWKS](t, rec).Keys
		require.Len(t, keys, 1)
		require.Equal(t, "OKP", keys[0].Kty)
		require.Equal(t, env.km.Signer.KID(), keys[0].Kid)
	})

	t.Run("livez", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decode[accountsdk.HealthResponse](t, rec).Status)
	})

	t.Run("readyz", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/readyz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[accountsdk.HealthResponse](t, rec)
		require.Equal(t, "ok", resp.Checks["database"])
		require.Equal(t, "ok", resp.Checks["signer"])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "eventpass_http_requests_total")
		require.Contains(t, rec.Body.String(), `route="GET /livez"`)
	})

	t.Run("request id echoed", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/livez", "", nil)
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, "")
	strict := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	r := NewRouter(env.km.KeySet, env.km.Verifier, "test", env.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.AccountService = env.svc
	r.RateLimits.Login = strict
	r.ApplyRoutes()
	env.router = r

	body := accountsdk.LoginRequest{Email: "ghost@x.io", Password: "x"}
	for range 2 {
		require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/v1/sessions", "", body).Code)
	}
	rec := env.do(t, http.MethodPost, "/v1/sessions", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A different email from the same address has its own bucket.
	body.Email = "other@x.io"
	require.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/v1/sessions", "", body).Code)
}

func TestLoginRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	env := newTestEnv(t, "")
	strict := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	r := NewRouter(env.km.KeySet, env.km.Verifier, "test", env.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.AccountService = env.svc
	r.RateLimits.Login = strict
	r.ApplyRoutes()

	attempt := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			strings.NewReader(`{"email":"ghost@x.io","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusBadRequest, attempt("203.0.113.1"))
	require.Equal(t, http.StatusBadRequest, attempt("203.0.113.2"))
	require.Equal(t, http.StatusTooManyRequests, attempt("203.0.113.3"))
}

func TestClientAgainstServer(t *testing.T) {
	env := newTestEnv(t, jwtx.AlgorithmEdDSA)
	admin := env.adminToken(t)

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := accountsdk.NewClient(srv.URL + "/")

	reg, err := c.Register(ctx, registration("sdk@x.io"))
	require.NoError(t, err)
	require.Equal(t, accountsdk.StatusPending, reg.PaymentStatus)

	_, err = c.Register(ctx, registration("sdk@x.io"))
	var apiErr *accountsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, msgUserExists, apiErr.Message)

	_, err = c.Login(ctx, "sdk@x.io", "Secret1!")
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsPendingApproval())
	require.False(t, apiErr.IsRejected())

	list, err := c.ListAccounts(ctx, admin, accountsdk.StatusPending)
	require.NoError(t, err)
	require.Len(t, list.Accounts, 1)

	reviewed, err := c.Review(ctx, admin, list.Accounts[0].ID, accountsdk.DecisionApprove)
	require.NoError(t, err)
	require.True(t, reviewed.IsApproved)

	sess, err := c.Login(ctx, "sdk@x.io", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, reviewed.ID, sess.ID)

	me, err := c.Me(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, "sdk@x.io", me.Email)
	require.Equal(t, "user", me.Role)

	_, err = c.Me(ctx, "not-a-token")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
