package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/eventpass/pkg/httpx"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer string // Optional: issuer claim for session tokens (default: eventpass-accounts)

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./accounts.db)
	DatabaseURL    string // Required for postgres: connection string

	TokenAlgorithm string        // Optional: HS256 or EdDSA (default: HS256)
	TokenSecret    string        // Required in prod for HS256: shared signing secret
	TokenTTL       time.Duration // Optional: session token lifetime (default: 720h)

	PasswordHasher string // Optional: argon2id or bcrypt (default: argon2id)
	BcryptCost     int    // Optional: bcrypt work factor (default: 10)
	PepperFile     string // Optional: file holding the argon2id pepper; empty disables it

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	MetricsEnabled      bool          // Serve /metrics and instrument routes (default: true)
	TrustedProxies      string        // Optional: comma separated proxy CIDRs allowed to set X-Forwarded-For

	RateLimitRegister httpx.RateLimitConfig
	RateLimitLogin    httpx.RateLimitConfig
	RateLimitAccount  httpx.RateLimitConfig
	RateLimitAdmin    httpx.RateLimitConfig
	RateLimitPublic   httpx.RateLimitConfig
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              getEnvOrDefault("ACCOUNTS_ISSUER", "eventpass-accounts"),
		DatabaseDriver:      getEnvOrDefault("ACCOUNTS_DATABASE_DRIVER", DriverSQLite),
		DatabaseFile:        getEnvOrDefault("ACCOUNTS_DATABASE_FILE", "accounts.db"),
		DatabaseURL:         os.Getenv("ACCOUNTS_DATABASE_URL"),
		TokenAlgorithm:      getEnvOrDefault("ACCOUNTS_TOKEN_ALGORITHM", jwtx.AlgorithmHS256),
		TokenSecret:         os.Getenv("ACCOUNTS_TOKEN_SECRET"),
		TokenTTL:            getEnvDurationOrDefault("ACCOUNTS_TOKEN_TTL", jwtx.DefaultSessionTTL),
		PasswordHasher:      getEnvOrDefault("ACCOUNTS_PASSWORD_HASHER", "argon2id"),
		BcryptCost:          getEnvIntOrDefault("ACCOUNTS_BCRYPT_COST", 10),
		PepperFile:          os.Getenv("ACCOUNTS_PEPPER_FILE"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		MetricsEnabled:      getEnvBoolOrDefault("METRICS_ENABLED", true),
		TrustedProxies:      os.Getenv("ACCOUNTS_TRUSTED_PROXIES"),

		RateLimitRegister: httpx.ParseRateLimitFromEnv("REGISTER", httpx.StrictLimit),
		RateLimitLogin:    httpx.ParseRateLimitFromEnv("LOGIN", httpx.StrictLimit),
		RateLimitAccount:  httpx.ParseRateLimitFromEnv("ACCOUNT", httpx.LenientLimit),
		RateLimitAdmin:    httpx.ParseRateLimitFromEnv("ADMIN", httpx.ModerateLimit),
		RateLimitPublic:   httpx.ParseRateLimitFromEnv("PUBLIC", httpx.LenientLimit),
	}

	return cfg
}

// IsProduction reports whether the service runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("ACCOUNTS_DATABASE_FILE is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ACCOUNTS_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q (supported: sqlite, postgres)", c.DatabaseDriver))
	}

	switch c.TokenAlgorithm {
	case jwtx.AlgorithmHS256:
		if c.TokenSecret == "" && c.IsProduction() {
			errs = append(errs, errors.New("ACCOUNTS_TOKEN_SECRET is required in production"))
		}
		if c.TokenSecret != "" && len(c.TokenSecret) < jwtx.MinHS256SecretLen {
			errs = append(errs, fmt.Errorf("ACCOUNTS_TOKEN_SECRET must be at least %d bytes", jwtx.MinHS256SecretLen))
		}
	case jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("unknown token algorithm %q (supported: HS256, EdDSA)", c.TokenAlgorithm))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("ACCOUNTS_TOKEN_TTL must be positive"))
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("ACCOUNTS_TRUSTED_PROXIES: %w", err))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
