// Package store persists cache entries and cost records.
package store

import (
	"context"
	"time"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

// Store defines the persistence interface for the enrichment pipeline.
// The cache side is a best-effort optimization: callers must keep working
// when every method here fails.
type Store interface {
	// Cache entries
	GetCacheEntry(ctx context.Context, key string) ([]byte, bool, error)
	SetCacheEntry(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteCacheEntry(ctx context.Context, key string) error
	DeleteCacheByPrefix(ctx context.Context, prefix string) (int, error)
	DeleteExpiredCache(ctx context.Context) (int, error)

	// Cost records (append-only)
	AppendCostRecords(ctx context.Context, records []model.CostRecord) error
	ListCostRecords(ctx context.Context, start, end time.Time) ([]model.CostRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
