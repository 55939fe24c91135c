package postgres

import (
	"context"

	"github.com/aussiebroadwan/eventpass/internal/accounts/store/drivers/postgres/migrations"
	"github.com/pressly/goose/v3"
)

// gooseUp is a seam so tests can run without a live database.
var gooseUp = func(ctx context.Context, s *Store) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

// ApplyMigrations runs the embedded goose migrations.
func (s *Store) ApplyMigrations() error {
	return gooseUp(context.Background(), s)
}
