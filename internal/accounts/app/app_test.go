package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/eventpass/pkg/accountsdk"
	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	loose := httpx.RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
	return Config{
		Issuer:              "test",
		DatabaseDriver:      DriverSQLite,
		DatabaseFile:        filepath.Join(dir, "accounts.db"),
		TokenAlgorithm:      jwtx.AlgorithmHS256,
		TokenTTL:            time.Hour,
		PasswordHasher:      "bcrypt",
		BcryptCost:          4,
		PepperFile:          filepath.Join(dir, "pepper"),
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		Port:                8080,
		ShutdownGracePeriod: time.Second,
		MetricsEnabled:      true,
		RateLimitRegister:   loose,
		RateLimitLogin:      loose,
		RateLimitAccount:    loose,
		RateLimitAdmin:      loose,
		RateLimitPublic:     loose,
	}
}

func TestApplicationServesRoutes(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	h := application.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := json.Marshal(accountsdk.RegisterRequest{
		Email:    "a@x.io",
		Password: "Secret1!",
		FullName: "Ada",
		State:    "VIC",
		Address:  "1 St",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
	require.Contains(t, rec.Body.String(), "eventpass_http_requests_total")
}

func TestApplicationWithoutMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false
	cfg.TokenAlgorithm = jwtx.AlgorithmEdDSA

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var jwks jwtx.JWKS
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.Len(t, jwks.Keys, 1)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestInitSessionKeys(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	t.Run("generated secret outside production", func(t *testing.T) {
		km, err := InitSessionKeys(cfg, logger)
		require.NoError(t, err)
		require.Equal(t, jwtx.AlgorithmHS256, km.Algorithm())
		require.Zero(t, km.KeySet.Len())
	})

	t.Run("configured secret is used", func(t *testing.T) {
		c := cfg
		c.TokenSecret = "0123456789abcdef0123456789abcdef"
		km, err := InitSessionKeys(c, logger)
		require.NoError(t, err)

		token, err := km.Signer.Sign(jwtx.NewSessionClaims("acct", "a@x.io", "user", c.Issuer, time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = jwtx.NewVerifierHS256([]byte(c.TokenSecret), c.Issuer).Verify(token)
		require.NoError(t, err)
	})

	t.Run("production requires secret", func(t *testing.T) {
		c := cfg
		c.Env = "prod"
		_, err := InitSessionKeys(c, logger)
		require.Error(t, err)
	})
}

func TestNewPasswordHasherUsesPepperFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.PasswordHasher = "argon2id"

	h1, err := NewPasswordHasher(cfg)
	require.NoError(t, err)
	hash, err := h1.Hash("Secret1!")
	require.NoError(t, err)

	// A second hasher reads the same pepper back.
	h2, err := NewPasswordHasher(cfg)
	require.NoError(t, err)
	require.NoError(t, h2.Verify("Secret1!", hash))

	cfg.PepperFile = filepath.Join(t.TempDir(), "other")
	h3, err := NewPasswordHasher(cfg)
	require.NoError(t, err)
	require.Error(t, h3.Verify("Secret1!", hash))
}
