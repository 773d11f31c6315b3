package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/broadcastkit/core/logger"
)

// Storage is the sweeper's write path into the broadcast store. ExpireDue
// must be batch-atomic per document and idempotent: broadcasts already
// marked expired are not counted again.
type Storage interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// CacheInvalidator drops cached listings after a sweep changes broadcast
// visibility. Deleting an absent key must not be an error.
type CacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// Sweeper periodically marks broadcasts whose deadline has passed as
// expired. Expiry is already enforced at read and write time against the
// deadline, so the sweeper is reconciliation, not enforcement: it exists so
// the stored status converges with the effective one and listings stay
// index-friendly.
type Sweeper struct {
	storage Storage
	c       *cron.Cron
	mu      sync.RWMutex
	running bool

	schedule        string
	runTimeout      time.Duration
	shutdownTimeout time.Duration
	log             *slog.Logger
	clock           func() time.Time
	invalidator     CacheInvalidator
	cacheKeys       []string

	runs    atomic.Int64
	swept   atomic.Int64
	errored atomic.Int64
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Runs      int64 // Completed sweep passes
	Swept     int64 // Total broadcasts transitioned to expired
	Errored   int64 // Sweep passes that returned an error
	IsRunning bool
}

// NewSweeper creates an expiry sweeper over the given storage backend.
// The schedule is validated eagerly so a misconfigured expression fails at
// construction, not at first tick.
func NewSweeper(storage Storage, opts ...Option) (*Sweeper, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := defaultSweeperOptions()
	for _, opt := range opts {
		opt(options)
	}

	if _, err := cron.ParseStandard(options.schedule); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, options.schedule, err)
	}

	return &Sweeper{
		storage:         storage,
		schedule:        options.schedule,
		runTimeout:      options.runTimeout,
		shutdownTimeout: options.shutdownTimeout,
		log:             options.logger,
		clock:           options.clock,
		invalidator:     options.invalidator,
		cacheKeys:       options.cacheKeys,
	}, nil
}

// NewSweeperFromConfig creates a Sweeper from configuration.
// Additional options can override config values.
func NewSweeperFromConfig(cfg Config, storage Storage, opts ...Option) (*Sweeper, error) {
	allOpts := append([]Option{
		WithSchedule(cfg.Schedule),
		WithRunTimeout(cfg.RunTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}, opts...)

	return NewSweeper(storage, allOpts...)
}

// Start schedules sweep passes and blocks until the context is cancelled.
// Overlapping passes are skipped rather than queued: a slow sweep must not
// pile up behind itself. Use Run() for errgroup pattern or call this in a
// goroutine.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweeper already started")
	}
	s.c = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := s.c.AddFunc(s.schedule, func() { s.sweep(ctx) }); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, s.schedule, err)
	}
	s.running = true
	c := s.c
	s.mu.Unlock()

	s.log.InfoContext(ctx, "expiry sweeper started",
		logger.Component("sweeper"),
		logger.Key("schedule", s.schedule))

	c.Start()
	<-ctx.Done()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.shutdownTimeout):
		s.log.Warn("sweeper shutdown timeout exceeded, abandoning in-flight sweep",
			logger.Component("sweeper"),
			logger.Key("timeout", s.shutdownTimeout))
	}

	return ctx.Err()
}

// IsRunning reports whether the sweeper is currently scheduled.
// Cancellation of the Start context is the shutdown signal.
func (s *Sweeper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (s *Sweeper) Run(ctx context.Context) func() error {
	return func() error {
		err := s.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// SweepNow performs a single sweep pass immediately, outside the schedule.
// It returns the number of broadcasts transitioned to expired.
func (s *Sweeper) SweepNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	return s.sweepOnce(ctx)
}

// Stats returns a snapshot of the sweeper's observability metrics.
func (s *Sweeper) Stats() Stats {
	return Stats{
		Runs:      s.runs.Load(),
		Swept:     s.swept.Load(),
		Errored:   s.errored.Load(),
		IsRunning: s.IsRunning(),
	}
}

// sweep is the scheduled entry point. Errors are counted and logged, never
// propagated: one failed pass must not stop the schedule.
func (s *Sweeper) sweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
	defer cancel()

	if _, err := s.sweepOnce(runCtx); err != nil {
		s.log.ErrorContext(runCtx, "sweep pass failed",
			logger.Component("sweeper"),
			logger.Error(err))
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) (int64, error) {
	now := s.clock()

	n, err := s.storage.ExpireDue(ctx, now)
	if err != nil {
		s.errored.Add(1)
		return 0, fmt.Errorf("failed to expire due broadcasts: %w", err)
	}

	s.runs.Add(1)
	s.swept.Add(n)

	if n == 0 {
		return 0, nil
	}

	s.log.InfoContext(ctx, "expired due broadcasts",
		logger.Component("sweeper"),
		logger.Count("expired", int(n)))

	if s.invalidator != nil {
		for _, key := range s.cacheKeys {
			if err := s.invalidator.Delete(ctx, key); err != nil {
				// Cached listings filter by deadline on read, so a stale entry
				// degrades freshness, not correctness.
				s.log.WarnContext(ctx, "failed to invalidate listing cache after sweep",
					logger.Component("sweeper"),
					logger.CacheKey(key),
					logger.Error(err))
			}
		}
	}

	return n, nil
}
