// Package cache provides the byte-oriented, TTL-bounded cache abstraction
// used by the broadcast engine for its active-listing read-through cache.
//
// The cache is an accelerator, never a source of truth. The contract is
// deliberately narrow: Get either returns a value or ErrCacheMiss, Set
// stores with a TTL, and Delete invalidates. Callers must treat every
// failure, including context timeouts, as a miss and fall back to the
// authoritative store, so a slow or unavailable cache degrades reads
// instead of failing them.
//
// # Usage
//
//	import "github.com/dmitrymomot/broadcastkit/core/cache"
//
//	c := cache.NewMemory()
//
//	if err := c.Set(ctx, "broadcasts:active", payload, 30*time.Second); err != nil {
//		// log and move on; the store remains authoritative
//	}
//
//	data, err := c.Get(ctx, "broadcasts:active")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// read from storage and repopulate
//	}
//
// The Memory implementation backs tests and local development. The
// production implementation over Redis lives in
// integration/database/redis.
package cache
