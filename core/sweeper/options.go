package sweeper

import (
	"io"
	"log/slog"
	"time"
)

type sweeperOptions struct {
	schedule        string
	runTimeout      time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	clock           func() time.Time
	invalidator     CacheInvalidator
	cacheKeys       []string
}

func defaultSweeperOptions() *sweeperOptions {
	cfg := DefaultConfig()
	return &sweeperOptions{
		schedule:        cfg.Schedule,
		runTimeout:      cfg.RunTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
		clock:           time.Now,
	}
}

// Option configures a Sweeper.
type Option func(*sweeperOptions)

// WithSchedule sets the cron expression or descriptor driving sweep passes.
func WithSchedule(schedule string) Option {
	return func(o *sweeperOptions) {
		if schedule != "" {
			o.schedule = schedule
		}
	}
}

// WithRunTimeout bounds a single sweep pass.
func WithRunTimeout(timeout time.Duration) Option {
	return func(o *sweeperOptions) {
		if timeout > 0 {
			o.runTimeout = timeout
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *sweeperOptions) {
		if timeout > 0 {
			o.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger for sweep operations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sweeperOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *sweeperOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithCacheInvalidation drops the given cache keys after any sweep pass that
// expired at least one broadcast, so cached listings never outlive a sweep.
func WithCacheInvalidation(invalidator CacheInvalidator, keys ...string) Option {
	return func(o *sweeperOptions) {
		if invalidator != nil && len(keys) > 0 {
			o.invalidator = invalidator
			o.cacheKeys = keys
		}
	}
}
