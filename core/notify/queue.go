package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue is the enqueuing side of the notification pipeline. It satisfies the
// engine's Notifier dependency: a one-way send that returns as soon as the
// message is durably stored, without waiting on delivery.
type Queue struct {
	storage     Storage
	maxAttempts int8
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithMaxAttempts sets the delivery attempt budget of enqueued messages.
func WithMaxAttempts(n int8) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// NewQueue creates an enqueuer over the given storage backend.
func NewQueue(storage Storage, opts ...QueueOption) (*Queue, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	q := &Queue{
		storage:     storage,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// NewQueueFromConfig creates an enqueuer from configuration.
func NewQueueFromConfig(cfg Config, storage Storage, opts ...QueueOption) (*Queue, error) {
	allOpts := append([]QueueOption{WithMaxAttempts(cfg.MaxAttempts)}, opts...)
	return NewQueue(storage, allOpts...)
}

// EnqueueJoinRequest stores a join-request notification event for
// asynchronous delivery. Both identifiers are required; nothing else is
// carried because the worker re-reads the broadcast anyway.
func (q *Queue) EnqueueJoinRequest(ctx context.Context, broadcastID, requesterID uuid.UUID) error {
	if broadcastID == uuid.Nil || requesterID == uuid.Nil {
		return ErrInvalidEvent
	}

	msg := &Message{
		ID:          uuid.New(),
		BroadcastID: broadcastID,
		RequesterID: requesterID,
		Status:      MessageStatusPending,
		MaxAttempts: q.maxAttempts,
		EnqueuedAt:  time.Now(),
	}

	if err := q.storage.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue join notification for broadcast %s: %w", broadcastID, err)
	}
	return nil
}
