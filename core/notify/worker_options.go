package notify

import (
	"io"
	"log/slog"
	"time"
)

type workerOptions struct {
	pollInterval    time.Duration
	lockTimeout     time.Duration
	shutdownTimeout time.Duration
	maxConcurrent   int
	logger          *slog.Logger
}

func defaultWorkerOptions() *workerOptions {
	cfg := DefaultConfig()
	return &workerOptions{
		pollInterval:    cfg.PollInterval,
		lockTimeout:     cfg.LockTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
		maxConcurrent:   1,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

// WithPollInterval sets how often the worker polls for claimable messages.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithLockTimeout sets the lock lease granted per claim. A message whose
// lease expires before completion becomes claimable again, which is what
// makes delivery at-least-once rather than at-most-once.
func WithLockTimeout(timeout time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if timeout > 0 {
			o.lockTimeout = timeout
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight dispatches.
func WithShutdownTimeout(timeout time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if timeout > 0 {
			o.shutdownTimeout = timeout
		}
	}
}

// WithMaxConcurrent sets the number of messages processed in parallel.
func WithMaxConcurrent(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithWorkerLogger sets the logger for worker operations.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
