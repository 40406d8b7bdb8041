// Package cache provides a read-through TTL cache keyed by normalized
// request signatures. It is a pure side-effect optimization: every failure
// is swallowed and treated as a miss, never surfaced to callers.
package cache

import (
	"context"
	"time"
)

// Cache is the key-value interface used by the orchestrators.
type Cache interface {
	// Get returns the cached value for key, or ok=false on a miss, an
	// expired entry, or any backing failure.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl. Failures are silent.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a single entry. Failures are silent.
	Delete(ctx context.Context, key string)
	// InvalidatePrefix removes every entry whose key starts with prefix.
	InvalidatePrefix(ctx context.Context, prefix string)
}
