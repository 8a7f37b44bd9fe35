// Package store persists transactions and description metadata.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/budget/internal/config"
	"github.com/cleared-dev/budget/internal/model"
)

// Store is the persistence boundary of an ingest run.
type Store interface {
	// InsertTransactions appends txns and returns how many were written.
	InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	// InsertDescriptions appends metadata rows and returns how many were written.
	InsertDescriptions(ctx context.Context, mds []model.DescriptionMetadata) (int, error)
	// SelectDescriptions returns every stored metadata row.
	SelectDescriptions(ctx context.Context) ([]model.DescriptionMetadata, error)
	// SelectRecordDescriptions returns the distinct descriptions of all
	// stored transactions, sorted.
	SelectRecordDescriptions(ctx context.Context) ([]string, error)
	// BatchID identifies the transactions written through this Store.
	BatchID() uuid.UUID
	Close() error
}

// Open connects to the store described by cfg, applying migrations for SQL
// backends.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN())
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN())
	case config.DriverCSV:
		return OpenCSV(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
