package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store/drivers/postgres"
	"github.com/aussiebroadwan/eventpass/internal/accounts/store/drivers/sqlite"
)

// OpenStore connects to the configured database and applies migrations.
func OpenStore(cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		st, err = sqlite.NewStore(dsn)
	case DriverPostgres:
		st, err = postgres.NewStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", slog.String("driver", cfg.DatabaseDriver))
	return st, nil
}
