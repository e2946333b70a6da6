package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus describes the schema version after migrating.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool // false when the schema was already current
}

// RunMigrations brings the database at dbPath to the latest schema.
func RunMigrations(dbPath string) (MigrationStatus, error) {
	var status MigrationStatus

	// separate connection so the migrator can close it freely
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return status, fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return status, fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return status, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return status, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil:
		status.Applied = true
	case errors.Is(err, migrate.ErrNoChange):
	default:
		return status, fmt.Errorf("run migrations: %w", err)
	}

	status.Version, status.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return status, fmt.Errorf("read migration version: %w", err)
	}
	return status, nil
}
