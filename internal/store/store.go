// Package store persists raw listing snapshots so price history
// accumulates across scrape runs. Matching never reads from here; the
// pipeline's input is always the current run's files.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pricepair/catalog-cli/internal/config"
	"github.com/pricepair/catalog-cli/internal/model"
)

// ImportResult reports one snapshot import.
type ImportResult struct {
	RunID    string `json:"run_id"`
	Inserted int    `json:"inserted"`
}

// Store defines the price-history persistence interface.
type Store interface {
	// ImportSnapshot appends one source's listings under a fresh run id.
	// History is append-only; earlier runs are never touched.
	ImportSnapshot(ctx context.Context, sourceID string, listings []model.Listing) (*ImportResult, error)

	// CountSnapshots returns the number of stored rows for a source.
	CountSnapshots(ctx context.Context, sourceID string) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the configured store backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
