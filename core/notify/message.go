package notify

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus tracks a notification message through the queue.
type MessageStatus string

const (
	MessageStatusPending    MessageStatus = "pending"
	MessageStatusProcessing MessageStatus = "processing"
	MessageStatusCompleted  MessageStatus = "completed"
	MessageStatusFailed     MessageStatus = "failed"
)

// DefaultMaxAttempts is the number of delivery attempts before a message is
// moved to the dead-letter queue.
const DefaultMaxAttempts int8 = 3

// Message is a durable "user requested to join broadcast X" event. The two
// identifiers are the entire wire schema; the worker re-reads the broadcast
// by id and never trusts anything else from the payload. Delivery is
// at-least-once: a message whose lock lease expires becomes claimable again,
// so consumers must tolerate duplicates.
type Message struct {
	ID          uuid.UUID     `json:"id"`
	BroadcastID uuid.UUID     `json:"broadcast_id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	Status      MessageStatus `json:"status"`
	Attempts    int8          `json:"attempts"`
	MaxAttempts int8          `json:"max_attempts"`
	LastError   *string       `json:"last_error,omitempty"`
	LockedUntil *time.Time    `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID    `json:"locked_by,omitempty"`
	EnqueuedAt  time.Time     `json:"enqueued_at"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
}

// DeadLetter is a message that exhausted all delivery attempts, preserved
// for manual inspection and recovery.
type DeadLetter struct {
	ID          uuid.UUID `json:"id"`
	MessageID   uuid.UUID `json:"message_id"`
	BroadcastID uuid.UUID `json:"broadcast_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Error       string    `json:"error"`
	Attempts    int8      `json:"attempts"`
	FailedAt    time.Time `json:"failed_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}
