package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/broadcastkit/core/cache"
)

// Notifier is the one-way send side of the notification queue. The engine
// never waits on notification delivery; enqueue failures are logged and
// swallowed because notifications are best-effort.
type Notifier interface {
	EnqueueJoinRequest(ctx context.Context, broadcastID, requesterID uuid.UUID) error
}

type engineOptions struct {
	cache         cache.Cache
	notifier      Notifier
	logger        *slog.Logger
	now           func() time.Time
	listingTTL    time.Duration
	allowRedecide bool
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

// WithCache sets the read-through cache for the active-broadcasts listing.
// Without a cache, ListActive always reads from storage.
func WithCache(c cache.Cache) EngineOption {
	return func(o *engineOptions) {
		if c != nil {
			o.cache = c
		}
	}
}

// WithNotifier sets the notification queue enqueuer used by RequestJoin.
func WithNotifier(n Notifier) EngineOption {
	return func(o *engineOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the logger for engine side effects (cache invalidation
// failures, enqueue failures).
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the engine's time source. Intended for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithListingTTL sets the TTL of the cached active-broadcasts listing.
func WithListingTTL(ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		if ttl > 0 {
			o.listingTTL = ttl
		}
	}
}

// WithAllowRedecide controls whether an already-decided join request may be
// decided again.
func WithAllowRedecide(allow bool) EngineOption {
	return func(o *engineOptions) {
		o.allowRedecide = allow
	}
}
