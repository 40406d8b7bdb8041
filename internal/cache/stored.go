package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Sadiq-Teslim/linq-sub000/internal/store"
)

// Stored is a Cache backed by a persistent store, surviving across runs.
// Store failures are logged at debug level and treated as misses so an
// unavailable database only makes calls slower, never broken.
type Stored struct {
	st store.Store
}

// NewStored wraps a store as a Cache.
func NewStored(st store.Store) *Stored {
	return &Stored{st: st}
}

func (s *Stored) Get(ctx context.Context, key string) ([]byte, bool) {
	val, ok, err := s.st.GetCacheEntry(ctx, key)
	if err != nil {
		zap.L().Debug("cache: get failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	return val, ok
}

func (s *Stored) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.st.SetCacheEntry(ctx, key, value, ttl); err != nil {
		zap.L().Debug("cache: set failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (s *Stored) Delete(ctx context.Context, key string) {
	if err := s.st.DeleteCacheEntry(ctx, key); err != nil {
		zap.L().Debug("cache: delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (s *Stored) InvalidatePrefix(ctx context.Context, prefix string) {
	if _, err := s.st.DeleteCacheByPrefix(ctx, prefix); err != nil {
		zap.L().Debug("cache: invalidate prefix failed",
			zap.String("prefix", prefix),
			zap.Error(err),
		)
	}
}
