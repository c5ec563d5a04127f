package repository

import (
	"context"
	"time"

	"github.com/user/profile-crawler/internal/entity"
)

// RecordStore defines the contract for durable profile storage and the
// last-run metadata. Implementations must allow reads while a crawl writes.
type RecordStore interface {
	// Exists reports whether a profile with this URL is stored.
	Exists(ctx context.Context, url string) (bool, error)
	// Save inserts the profile unless its URL is already stored, in which case
	// it is a silent no-op and inserted is false. The first write wins.
	Save(ctx context.Context, profile *entity.Profile) (inserted bool, err error)
	// Count returns the number of stored profiles.
	Count(ctx context.Context) (int64, error)
	// SetLastRun overwrites the last completed crawl timestamp.
	SetLastRun(ctx context.Context, t time.Time) error
	// GetLastRun returns nil when no crawl has completed yet.
	GetLastRun(ctx context.Context) (*time.Time, error)
	// ExportAll returns every profile in insertion order without mutating state.
	ExportAll(ctx context.Context) ([]entity.Profile, error)
	// Ping checks that the backing medium is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}
