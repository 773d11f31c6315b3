package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in memory for tests and local development.
// Lock leases are honored the same way the production backends honor them:
// a processing message with an expired lease is claimable again.
type MemoryStorage struct {
	mu         sync.Mutex
	messages   map[uuid.UUID]*Message
	deadLetter map[uuid.UUID]*DeadLetter
}

// NewMemoryStorage creates an empty in-memory queue storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages:   make(map[uuid.UUID]*Message),
		deadLetter: make(map[uuid.UUID]*DeadLetter),
	}
}

// Enqueue stores a copy of the message.
func (ms *MemoryStorage) Enqueue(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.messages[msg.ID]; exists {
		return fmt.Errorf("message with id %s already exists", msg.ID)
	}
	clone := *msg
	ms.messages[msg.ID] = &clone
	return nil
}

// Claim atomically claims the oldest claimable message.
func (ms *MemoryStorage) Claim(ctx context.Context, workerID uuid.UUID, lockFor time.Duration) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	candidates := make([]*Message, 0)
	for _, msg := range ms.messages {
		switch msg.Status {
		case MessageStatusPending:
			candidates = append(candidates, msg)
		case MessageStatusProcessing:
			if msg.LockedUntil != nil && msg.LockedUntil.Before(now) {
				candidates = append(candidates, msg)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoMessage
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].EnqueuedAt.Equal(candidates[j].EnqueuedAt) {
			return candidates[i].EnqueuedAt.Before(candidates[j].EnqueuedAt)
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	msg := candidates[0]
	lockedUntil := now.Add(lockFor)
	msg.Status = MessageStatusProcessing
	msg.LockedUntil = &lockedUntil
	msg.LockedBy = &workerID

	clone := *msg
	return &clone, nil
}

// Complete marks the message delivered and releases its lock.
func (ms *MemoryStorage) Complete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	msg, ok := ms.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	now := time.Now()
	msg.Status = MessageStatusCompleted
	msg.ProcessedAt = &now
	msg.LockedUntil = nil
	msg.LockedBy = nil
	return nil
}

// Fail records the error, increments the attempt counter, and re-pends the
// message for retry.
func (ms *MemoryStorage) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	msg, ok := ms.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Attempts++
	msg.Status = MessageStatusPending
	msg.LastError = &errMsg
	msg.LockedUntil = nil
	msg.LockedBy = nil
	return nil
}

// MoveToDeadLetter moves the message out of the active queue.
func (ms *MemoryStorage) MoveToDeadLetter(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	msg, ok := ms.messages[id]
	if !ok {
		return ErrMessageNotFound
	}

	var lastErr string
	if msg.LastError != nil {
		lastErr = *msg.LastError
	}
	ms.deadLetter[msg.ID] = &DeadLetter{
		ID:          uuid.New(),
		MessageID:   msg.ID,
		BroadcastID: msg.BroadcastID,
		RequesterID: msg.RequesterID,
		Error:       lastErr,
		Attempts:    msg.Attempts,
		FailedAt:    time.Now(),
		EnqueuedAt:  msg.EnqueuedAt,
	}
	delete(ms.messages, id)
	return nil
}

// Message returns a copy of the message with the given id, for tests.
func (ms *MemoryStorage) Message(id uuid.UUID) (*Message, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	msg, ok := ms.messages[id]
	if !ok {
		return nil, false
	}
	clone := *msg
	return &clone, true
}

// Messages returns copies of all queued messages, for tests.
func (ms *MemoryStorage) Messages() []Message {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Message, 0, len(ms.messages))
	for _, msg := range ms.messages {
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out
}

// DeadLetters returns copies of all dead-lettered messages, for tests.
func (ms *MemoryStorage) DeadLetters() []DeadLetter {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]DeadLetter, 0, len(ms.deadLetter))
	for _, dl := range ms.deadLetter {
		out = append(out, *dl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FailedAt.Before(out[j].FailedAt) })
	return out
}
