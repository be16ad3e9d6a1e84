package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// source driver
)

func newMigrator(db *sql.DB, migrationsDir string) (*migrate.Migrate, string, error) {
	path := migrationsDir
	if abs, err := filepath.Abs(migrationsDir); err == nil {
		path = abs
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, path, fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return nil, path, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, path, nil
}

// RunMigrations applies all pending up migrations from migrationsDir.
func RunMigrations(db *sql.DB, migrationsDir string, logger *slog.Logger) error {
	logger.Info("checking for pending database migrations", "dir", migrationsDir)

	m, path, err := newMigrator(db, migrationsDir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations found", "path", path)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations completed", "path", path, "version", version)
	return nil
}

// RollbackMigrations reverts the given number of migrations (at least one).
func RollbackMigrations(db *sql.DB, migrationsDir string, steps int, logger *slog.Logger) error {
	m, path, err := newMigrator(db, migrationsDir)
	if err != nil {
		return err
	}

	if steps <= 0 {
		steps = 1
	}

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to roll back", "path", path)
			return nil
		}
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	logger.Info("migrations rolled back", "path", path, "steps", steps)
	return nil
}

// MigrationVersion reports the applied schema version and dirty flag.
func MigrationVersion(db *sql.DB, migrationsDir string) (uint, bool, error) {
	m, _, err := newMigrator(db, migrationsDir)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}
