// pkg/inventory/store.go

package inventory

import (
	"context"

	"github.com/TecnoSoul/InfraStack/pkg/config"
	cerr "github.com/cockroachdb/errors"
)

// Store is the inventory contract. Call sites depend only on this, so the
// CSV file can be swapped for SQLite without touching them.
type Store interface {
	// Initialize makes sure the backing file exists; safe to repeat.
	Initialize(ctx context.Context) error
	// Append adds a row. Duplicate CTIDs are rejected with ErrDuplicate.
	Append(ctx context.Context, s Station) error
	// Find returns the first row for ctid or ErrNotFound.
	Find(ctx context.Context, ctid int) (*Station, error)
	// List returns every row in insertion order. A missing backing file
	// yields an empty list.
	List(ctx context.Context) ([]Station, error)
	// Remove deletes the row for ctid, leaving the others in order.
	Remove(ctx context.Context, ctid int) error
	// Reset drops every row, keeping the header.
	Reset(ctx context.Context) error
	Close() error
}

// Open returns the configured backend.
func Open(cfg config.InventoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "csv":
		return NewCSVStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLiteStore(cfg.Path)
	default:
		return nil, cerr.Newf("unknown inventory backend %q", cfg.Backend)
	}
}

// Count returns the number of rows List would return.
func Count(ctx context.Context, s Store) (int, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CountByPlatform returns the number of rows whose platform equals platform.
func CountByPlatform(ctx context.Context, s Store, platform string) (int, error) {
	rows, err := FilterByPlatform(ctx, s, platform)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// FilterByPlatform returns the rows of one platform in insertion order.
func FilterByPlatform(ctx context.Context, s Store, platform string) ([]Station, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []Station
	for _, r := range rows {
		if r.Platform == platform {
			matched = append(matched, r)
		}
	}
	return matched, nil
}
