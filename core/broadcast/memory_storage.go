package broadcast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in memory for tests and local development.
// All reads return copies, all mutations happen under a single mutex, which
// gives the same per-broadcast serialization guarantees the production
// backends provide through conditional atomic updates.
type MemoryStorage struct {
	mu         sync.RWMutex
	broadcasts map[uuid.UUID]*Broadcast
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{broadcasts: make(map[uuid.UUID]*Broadcast)}
}

// CreateBroadcast stores a copy of the broadcast.
func (ms *MemoryStorage) CreateBroadcast(ctx context.Context, b *Broadcast) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("%w: broadcast cannot be nil", ErrInvalidInput)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.broadcasts[b.ID]; exists {
		return fmt.Errorf("broadcast with id %s already exists", b.ID)
	}
	ms.broadcasts[b.ID] = cloneBroadcast(b)
	return nil
}

// GetBroadcast returns a copy of the broadcast with the given id.
func (ms *MemoryStorage) GetBroadcast(ctx context.Context, id uuid.UUID) (*Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	b, ok := ms.broadcasts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBroadcast(b), nil
}

// ListActive returns active broadcasts with a deadline after now, newest first.
func (ms *MemoryStorage) ListActive(ctx context.Context, now time.Time) ([]Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	list := make([]Broadcast, 0)
	for _, b := range ms.broadcasts {
		if b.Status == StatusActive && b.ExpiresAt.After(now) {
			list = append(list, *cloneBroadcast(b))
		}
	}
	sortNewestFirst(list)
	return list, nil
}

// SearchBroadcasts returns the matching page and the total match count,
// newest first.
func (ms *MemoryStorage) SearchBroadcasts(ctx context.Context, f Filter) ([]Broadcast, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keyword := strings.ToLower(f.Keyword)
	matches := make([]Broadcast, 0)
	for _, b := range ms.broadcasts {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(b.Title), keyword) &&
			!strings.Contains(strings.ToLower(b.Description), keyword) {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.CreatedAfter != nil && b.CreatedAt.Before(*f.CreatedAfter) {
			continue
		}
		if f.CreatedBefore != nil && b.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		matches = append(matches, *cloneBroadcast(b))
	}
	sortNewestFirst(matches)

	total := int64(len(matches))
	if f.Offset >= len(matches) {
		return []Broadcast{}, total, nil
	}
	matches = matches[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matches) {
		matches = matches[:f.Limit]
	}
	return matches, total, nil
}

// UpdateBroadcast applies the supplied fields, gated on the broadcast still
// being active with a future deadline.
func (ms *MemoryStorage) UpdateBroadcast(ctx context.Context, id uuid.UUID, upd Update, now time.Time) (*Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.broadcasts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != StatusActive || !b.ExpiresAt.After(now) {
		return nil, ErrExpired
	}

	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.ExpiresAt != nil {
		b.ExpiresAt = *upd.ExpiresAt
	}
	return cloneBroadcast(b), nil
}

// DeleteBroadcast removes the broadcast.
func (ms *MemoryStorage) DeleteBroadcast(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.broadcasts[id]; !ok {
		return ErrNotFound
	}
	delete(ms.broadcasts, id)
	return nil
}

// AddJoinRequest atomically appends the request, enforcing one request per
// user and the active+unexpired gate.
func (ms *MemoryStorage) AddJoinRequest(ctx context.Context, id uuid.UUID, req JoinRequest, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.broadcasts[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != StatusActive || !b.ExpiresAt.After(now) {
		return ErrExpired
	}
	if _, exists := b.JoinRequestBy(req.UserID); exists {
		return ErrAlreadyRequested
	}
	b.JoinRequests = append(b.JoinRequests, req)
	return nil
}

// DecideJoinRequest sets the decision on the user's request.
func (ms *MemoryStorage) DecideJoinRequest(ctx context.Context, id, userID uuid.UUID, decision JoinStatus, decidedAt time.Time, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.broadcasts[id]
	if !ok {
		return ErrNotFound
	}
	for i := range b.JoinRequests {
		if b.JoinRequests[i].UserID != userID {
			continue
		}
		if b.JoinRequests[i].Status.Decided() && !overwrite {
			return ErrAlreadyDecided
		}
		at := decidedAt
		b.JoinRequests[i].Status = decision
		b.JoinRequests[i].DecidedAt = &at
		return nil
	}
	return ErrRequestNotFound
}

// ExpireDue flips every due active broadcast to expired and returns the count.
func (ms *MemoryStorage) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	var flipped int64
	for _, b := range ms.broadcasts {
		if b.Status == StatusActive && !b.ExpiresAt.After(now) {
			b.Status = StatusExpired
			flipped++
		}
	}
	return flipped, nil
}

func cloneBroadcast(b *Broadcast) *Broadcast {
	c := *b
	c.JoinRequests = make([]JoinRequest, len(b.JoinRequests))
	copy(c.JoinRequests, b.JoinRequests)
	for i := range c.JoinRequests {
		if b.JoinRequests[i].DecidedAt != nil {
			at := *b.JoinRequests[i].DecidedAt
			c.JoinRequests[i].DecidedAt = &at
		}
	}
	return &c
}

func sortNewestFirst(list []Broadcast) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
