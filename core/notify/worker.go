package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
	"github.com/dmitrymomot/broadcastkit/core/logger"
)

// BroadcastSource is the worker's read path into the authoritative store.
// The worker re-reads every broadcast by id instead of trusting event
// payloads beyond the two identifiers.
type BroadcastSource interface {
	GetBroadcast(ctx context.Context, id uuid.UUID) (*broadcast.Broadcast, error)
}

// Worker pulls notification messages from the queue and dispatches them.
// A broadcast deleted between enqueue and processing is a race outcome, not
// a failure: the message is logged and dropped. Dispatch errors are retried
// up to the message's attempt budget, then moved to the dead-letter store.
type Worker struct {
	storage    Storage
	source     BroadcastSource
	dispatcher Dispatcher
	workerID   uuid.UUID
	sem        chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex

	pollInterval    time.Duration
	lockTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	active    atomic.Int32
}

// WorkerStats provides observability metrics for monitoring and debugging.
type WorkerStats struct {
	Delivered int64 // Successfully dispatched notifications
	Failed    int64 // Dispatch failures, including messages moved to the DLQ
	Dropped   int64 // Messages dropped because the broadcast vanished
	Active    int32 // Messages currently being processed
	IsRunning bool
}

// NewWorker creates a notification worker.
func NewWorker(storage Storage, source BroadcastSource, dispatcher Dispatcher, opts ...WorkerOption) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if source == nil {
		return nil, ErrSourceNil
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	options := defaultWorkerOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		storage:         storage,
		source:          source,
		dispatcher:      dispatcher,
		workerID:        uuid.New(),
		sem:             make(chan struct{}, options.maxConcurrent),
		pollInterval:    options.pollInterval,
		lockTimeout:     options.lockTimeout,
		shutdownTimeout: options.shutdownTimeout,
		logger:          options.logger,
	}, nil
}

// NewWorkerFromConfig creates a Worker from configuration.
// Additional options can override config values.
func NewWorkerFromConfig(cfg Config, storage Storage, source BroadcastSource, dispatcher Dispatcher, opts ...WorkerOption) (*Worker, error) {
	allOpts := append([]WorkerOption{
		WithPollInterval(cfg.PollInterval),
		WithLockTimeout(cfg.LockTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithMaxConcurrent(cfg.MaxConcurrent),
	}, opts...)

	return NewWorker(storage, source, dispatcher, allOpts...)
}

// Start begins processing messages. This is a blocking operation that runs
// until the context is cancelled. Use Run() for errgroup pattern or call
// this in a goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.logger.InfoContext(w.ctx, "notification worker started",
		logger.Component("notify"),
		logger.WorkerID(w.workerID),
		logger.Count("max_concurrent", cap(w.sem)))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				// Mutex protects against shutdown race: must verify worker is
				// still running AND add to waitgroup atomically, otherwise
				// Stop() might wait on an incomplete count.
				w.mu.RLock()
				if w.cancel == nil {
					w.mu.RUnlock()
					<-w.sem
					return nil
				}
				w.wg.Add(1)
				w.mu.RUnlock()

				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()

					if err := w.pullAndProcess(); err != nil {
						w.logger.ErrorContext(w.ctx, "failed to process notification",
							logger.Component("notify"),
							logger.WorkerID(w.workerID),
							logger.Error(err))
					}
				}()
			default:
				// All slots busy; skip this tick.
			}
		}
	}
}

// Stop gracefully shuts down the worker with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return fmt.Errorf("worker not started")
	}
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded after %s", w.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the worker, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- w.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = w.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns a snapshot of the worker's observability metrics.
func (w *Worker) Stats() WorkerStats {
	w.mu.RLock()
	running := w.cancel != nil
	w.mu.RUnlock()

	return WorkerStats{
		Delivered: w.delivered.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
		Active:    w.active.Load(),
		IsRunning: running,
	}
}

func (w *Worker) pullAndProcess() error {
	msg, err := w.storage.Claim(w.ctx, w.workerID, w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoMessage) {
			return nil
		}
		return fmt.Errorf("failed to claim message: %w", err)
	}

	return w.process(msg)
}

func (w *Worker) process(msg *Message) (retErr error) {
	w.active.Add(1)
	defer w.active.Add(-1)

	// Panic recovery ensures a single bad dispatcher cannot crash the worker;
	// the panic is treated as a dispatch failure with retry eligibility.
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in dispatcher: %v", r)
			w.logger.ErrorContext(w.ctx, "dispatcher panicked",
				logger.Component("notify"),
				logger.WorkerID(w.workerID),
				logger.MessageID(msg.ID),
				logger.Key("panic", r),
				logger.Stack())
			_ = w.failMessage(msg, retErr)
		}
	}()

	// Independent context: worker shutdown should not interrupt a dispatch in
	// flight; it gets the full lock lease to complete.
	ctx, cancel := context.WithTimeout(context.Background(), w.lockTimeout)
	defer cancel()

	b, err := w.source.GetBroadcast(ctx, msg.BroadcastID)
	if err != nil {
		if errors.Is(err, broadcast.ErrNotFound) {
			// Deleted between enqueue and processing: expected race outcome.
			w.dropped.Add(1)
			w.logger.InfoContext(ctx, "broadcast vanished before notification, dropping event",
				logger.Component("notify"),
				logger.MessageID(msg.ID),
				logger.BroadcastID(msg.BroadcastID))
			if err := w.storage.Complete(ctx, msg.ID); err != nil {
				return fmt.Errorf("failed to drop message %s: %w", msg.ID, err)
			}
			return nil
		}
		return w.failMessage(msg, fmt.Errorf("failed to load broadcast %s: %w", msg.BroadcastID, err))
	}

	if err := w.dispatcher.DispatchJoinRequest(ctx, b, msg.RequesterID); err != nil {
		return w.failMessage(msg, err)
	}

	if err := w.storage.Complete(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to mark message %s completed: %w", msg.ID, err)
	}

	w.delivered.Add(1)
	w.logger.InfoContext(ctx, "join notification delivered",
		logger.Component("notify"),
		logger.MessageID(msg.ID),
		logger.BroadcastID(msg.BroadcastID),
		logger.UserID(msg.RequesterID))
	return nil
}

// failMessage records the failure and moves the message to the dead-letter
// store once its attempt budget is spent. Fail itself re-pends the message
// with an incremented attempt counter, so one failed event never blocks the
// rest of the queue.
func (w *Worker) failMessage(msg *Message, dispatchErr error) error {
	w.failed.Add(1)

	w.logger.ErrorContext(w.ctx, "notification dispatch failed",
		logger.Component("notify"),
		logger.WorkerID(w.workerID),
		logger.MessageID(msg.ID),
		logger.BroadcastID(msg.BroadcastID),
		logger.RetryCount(int(msg.Attempts)),
		logger.Error(dispatchErr))

	if err := w.storage.Fail(w.ctx, msg.ID, dispatchErr.Error()); err != nil {
		return fmt.Errorf("failed to record failure of message %s: %w", msg.ID, err)
	}

	// Attempts on the claimed snapshot is the count before this failure.
	if msg.Attempts+1 >= msg.MaxAttempts {
		if err := w.storage.MoveToDeadLetter(w.ctx, msg.ID); err != nil {
			return fmt.Errorf("failed to move message %s to dead letter: %w", msg.ID, err)
		}
		w.logger.WarnContext(w.ctx, "notification moved to dead letter queue",
			logger.Component("notify"),
			logger.MessageID(msg.ID),
			logger.BroadcastID(msg.BroadcastID))
	}

	return nil
}
