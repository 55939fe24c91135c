package app

import (
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/eventpass/pkg/cryptox"
	"github.com/aussiebroadwan/eventpass/pkg/jwtx"
)

// InitSessionKeys builds the key manager for session tokens.
//
// With HS256 and no configured secret, outside production, a random secret is
// generated for this process only. Tokens signed with it stop verifying after
// a restart.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	secret := []byte(cfg.TokenSecret)

	if cfg.TokenAlgorithm == jwtx.AlgorithmHS256 && len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, errors.New("ACCOUNTS_TOKEN_SECRET is required in production")
		}
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		secret = []byte(generated)
		logger.Warn("ACCOUNTS_TOKEN_SECRET not set, using a generated secret; sessions will not survive a restart")
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.TokenAlgorithm,
		Issuer:    cfg.Issuer,
		Secret:    secret,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("session keys ready",
		slog.String("algorithm", km.Algorithm()),
		slog.Int("published_keys", km.KeySet.Len()),
	)
	return km, nil
}

// NewPasswordHasher loads the pepper, if configured, and returns the hasher
// for new passwords.
func NewPasswordHasher(cfg Config) (*cryptox.Passwords, error) {
	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, err
	}
	return cryptox.NewPasswords(cfg.PasswordHasher, pepper, cfg.BcryptCost)
}
