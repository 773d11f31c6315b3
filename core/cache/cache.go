package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with per-key TTL. It is never a source of
// truth: callers must treat every error, including timeouts, as a miss and
// fall back to the authoritative store. Delete is idempotent.
type Cache interface {
	// Get returns the value stored under key.
	// Returns ErrCacheMiss when the key is absent or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value under key for the given TTL.
	// A non-positive TTL stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
