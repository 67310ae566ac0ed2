// Package store persists extracted statement snapshots keyed by
// (company, filing type, fiscal period).
package store

import (
	"context"
	"time"

	"github.com/sells-group/findata-cli/internal/model"
)

// Store defines the persistence interface for the filing cache.
//
// Get returns (nil, nil) on a miss. Put is an upsert: it atomically
// replaces any existing entry for the same key and is durable before it
// returns. Reads never trigger fetches; that orchestration belongs to the
// financial data manager.
type Store interface {
	Get(ctx context.Context, companyID string, filingType model.FilingType, period string) (*model.CacheEntry, error)
	Put(ctx context.Context, entry *model.CacheEntry) error
	Invalidate(ctx context.Context, companyID string, filingType model.FilingType, period string) error

	// ListPeriods returns the cached fiscal periods for a key, most
	// recent first. Used to locate the latest and prior periods.
	ListPeriods(ctx context.Context, companyID string, filingType model.FilingType) ([]string, error)

	// Per-company last-fetch bookkeeping.
	RecordFetch(ctx context.Context, companyID string, at time.Time, status string) error
	LastFetch(ctx context.Context, companyID string) (*time.Time, error)

	Migrate(ctx context.Context) error
	Close() error
}
