package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the durable backing of the notification queue. It guarantees
// at-least-once delivery to a single logical consumer group through lock
// leases: a claimed message is invisible to other workers until its lease
// expires, after which it becomes claimable again.
type Storage interface {
	// Enqueue persists a new pending message.
	Enqueue(ctx context.Context, msg *Message) error

	// Claim atomically claims the oldest claimable message for the worker and
	// marks it processing with a lock lease of lockFor. A message is
	// claimable when pending, or when processing with an expired lease.
	// Returns ErrNoMessage when nothing is ready.
	Claim(ctx context.Context, workerID uuid.UUID, lockFor time.Duration) (*Message, error)

	// Complete marks the message delivered and releases its lock.
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail records the delivery error, increments the attempt counter, and
	// makes the message pending again so it can be retried.
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error

	// MoveToDeadLetter moves the message out of the active queue into the
	// dead-letter store after retry exhaustion.
	MoveToDeadLetter(ctx context.Context, id uuid.UUID) error
}
