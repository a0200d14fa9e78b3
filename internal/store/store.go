// Package store persists dated per-brand snapshots and maintains the brand
// index. Persistence is behind an interface so analytics and the collector
// never touch the physical layer directly.
package store

import (
	"context"
	"errors"

	"car-intel/internal/models"
)

// ErrNotFound is returned when no snapshot exists for the requested key.
// Malformed persisted data is reported the same way; readers fall back to
// empty defaults rather than failing the run.
var ErrNotFound = errors.New("snapshot not found")

// Store is the system of record for snapshots. Write is an idempotent
// overwrite for the same (brand, date). Implementations cache the brand
// index; InvalidateCache forces a reload on next access.
type Store interface {
	Write(ctx context.Context, snap models.Snapshot) error
	Read(ctx context.Context, brand, date string) (models.Snapshot, error)
	ReadLatest(ctx context.Context, brand string) (models.Snapshot, error)
	ListDates(ctx context.Context, brand string) ([]string, error)
	Index(ctx context.Context) (models.BrandIndex, error)
	InvalidateCache()
}
