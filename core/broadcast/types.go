package broadcast

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle state of a broadcast. The transition is
// monotonic: once expired, a broadcast never becomes active again.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Valid checks if the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusExpired
}

// JoinStatus tracks the decision state of a join request.
type JoinStatus string

const (
	JoinStatusPending  JoinStatus = "pending"
	JoinStatusAccepted JoinStatus = "accepted"
	JoinStatusRejected JoinStatus = "rejected"
)

// Decided reports whether the status represents a creator decision.
func (s JoinStatus) Decided() bool {
	return s == JoinStatusAccepted || s == JoinStatusRejected
}

// Broadcast is a time-bounded invitation record owned by its creator.
// Join requests are embedded as an ordered sub-list, at most one per user.
type Broadcast struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	CreatorID    uuid.UUID     `json:"creator_id"`
	Status       Status        `json:"status"`
	JoinRequests []JoinRequest `json:"join_requests"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// JoinRequest is a per-user request to be admitted to a broadcast.
type JoinRequest struct {
	UserID      uuid.UUID  `json:"user_id"`
	Status      JoinStatus `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// ExpiredAt reports whether the broadcast's deadline has passed at the given
// moment. The stored status is consulted as well, so a broadcast durably
// flipped by the sweeper stays expired even if its deadline were extended.
func (b *Broadcast) ExpiredAt(now time.Time) bool {
	return b.Status == StatusExpired || !b.ExpiresAt.After(now)
}

// EffectiveStatus derives the status from the deadline rather than trusting
// the stored field, which may lag behind wall-clock time until the sweeper
// runs.
func (b *Broadcast) EffectiveStatus(now time.Time) Status {
	if b.ExpiredAt(now) {
		return StatusExpired
	}
	return StatusActive
}

// JoinRequestBy returns the join request made by the given user, if any.
func (b *Broadcast) JoinRequestBy(userID uuid.UUID) (JoinRequest, bool) {
	for _, r := range b.JoinRequests {
		if r.UserID == userID {
			return r, true
		}
	}
	return JoinRequest{}, false
}
