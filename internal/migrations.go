package internal

import (
	"database/sql"
	"fmt"

	"github.com/billwave/billwave/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies any pending schema migrations from the embedded
// SQL files. Goose records applied versions in goose_db_version, so the
// call is a no-op on an up-to-date database.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.MigrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
