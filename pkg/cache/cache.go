// Package cache provides response caching for registry lookups.
//
// Three backends implement the same interface:
//   - FileCache: per-entry files under a directory, for CLI usage
//   - RedisCache: shared cache for long-running or multi-host runs
//   - NullCache: disables caching entirely
//
// Entries carry a TTL; expired entries are treated as misses. Keys are
// arbitrary strings (callers namespace them, e.g. "pypi:release:requests").
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means the entry
	// never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
