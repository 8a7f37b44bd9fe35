package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// runMigrations brings the schema up to date. It uses its own connection
// because closing the migrate instance closes the underlying database.
func runMigrations(d dialect, dsn string) error {
	migrateDB, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var driver database.Driver
	switch d.driverName {
	case sqliteDialect.driverName:
		driver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	case postgresDialect.driverName:
		driver, err = postgres.WithInstance(migrateDB, &postgres.Config{})
	default:
		err = fmt.Errorf("no migrations for %s", d.driverName)
	}
	if err != nil {
		return fmt.Errorf("create %s driver: %w", d.driverName, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+d.driverName)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.driverName, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
