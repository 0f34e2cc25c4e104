package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/todoapp/apiserver/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies all pending up migrations. It is a no-op when the schema
// is already current.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	return runMigrations(ctx, cfg, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown reverts every applied migration.
func MigrateDown(ctx context.Context, cfg config.DatabaseConfig) error {
	return runMigrations(ctx, cfg, func(m *migrate.Migrate) error {
		return m.Down()
	})
}

// runMigrations works on its own connection: closing a migrator also
// closes the database handle it was given.
func runMigrations(ctx context.Context, cfg config.DatabaseConfig, step func(*migrate.Migrate) error) error {
	conn, err := Open(ctx, cfg)
	if err != nil {
		return err
	}

	var driver database.Driver
	switch conn.Dialect {
	case Postgres:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		err = fmt.Errorf("no migration driver for %s", conn.Dialect)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(conn.Dialect))
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("open migration source: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, string(conn.Dialect), driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := step(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
