package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the authoritative persistent record of broadcasts and their
// embedded join requests. Every mutation must be expressed as a conditional,
// field-scoped atomic operation keyed by broadcast id; implementations must
// never read-modify-write the whole record, so that concurrent writers on
// the same broadcast cannot lose updates.
type Storage interface {
	// CreateBroadcast persists a new broadcast.
	CreateBroadcast(ctx context.Context, b *Broadcast) error

	// GetBroadcast returns the broadcast with the given id.
	// Returns ErrNotFound when absent.
	GetBroadcast(ctx context.Context, id uuid.UUID) (*Broadcast, error)

	// ListActive returns broadcasts with status=active whose deadline is
	// strictly after now.
	ListActive(ctx context.Context, now time.Time) ([]Broadcast, error)

	// SearchBroadcasts returns the matching page and the total match count.
	SearchBroadcasts(ctx context.Context, f Filter) ([]Broadcast, int64, error)

	// UpdateBroadcast applies the supplied fields as a single conditional
	// update gated on the broadcast still being active with a future deadline,
	// and returns the updated record. Returns ErrNotFound when the broadcast
	// is absent and ErrExpired when the gate fails.
	UpdateBroadcast(ctx context.Context, id uuid.UUID, upd Update, now time.Time) (*Broadcast, error)

	// DeleteBroadcast permanently removes the broadcast.
	// Returns ErrNotFound when absent.
	DeleteBroadcast(ctx context.Context, id uuid.UUID) error

	// AddJoinRequest atomically appends a join request, gated on the broadcast
	// being active with a deadline after now and on no existing request by the
	// same user. Exactly one of two concurrent same-user calls may succeed;
	// the loser receives ErrAlreadyRequested. Returns ErrNotFound or
	// ErrExpired when the respective gate fails.
	AddJoinRequest(ctx context.Context, id uuid.UUID, req JoinRequest, now time.Time) error

	// DecideJoinRequest sets the decision on the user's join request as a
	// positional atomic update. When overwrite is false, a request that is
	// already decided is left untouched and ErrAlreadyDecided is returned.
	// Returns ErrNotFound when the broadcast is absent and ErrRequestNotFound
	// when the user has no request on it. Decisions are permitted on expired
	// broadcasts; only deletion removes the request sub-list.
	DecideJoinRequest(ctx context.Context, id, userID uuid.UUID, decision JoinStatus, decidedAt time.Time, overwrite bool) error

	// ExpireDue flips status to expired for every active broadcast whose
	// deadline is at or before now, as one conditional set-based update, and
	// returns the number of records changed. Safe to run concurrently:
	// flipping an already-expired record is a no-op.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Filter narrows SearchBroadcasts results. Zero values mean "no constraint".
// Offset/Limit are resolved by the engine before reaching storage.
type Filter struct {
	// Keyword is matched case-insensitively as a substring of title or description.
	Keyword string
	// Status filters on the stored status field.
	Status *Status
	// CreatedAfter/CreatedBefore bound the creation timestamp (inclusive).
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Offset        int
	Limit         int
}

// Update carries the fields of a partial broadcast update. Nil fields are
// left unchanged.
type Update struct {
	Title       *string
	Description *string
	ExpiresAt   *time.Time
}

// Empty reports whether the update carries no fields.
func (u Update) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ExpiresAt == nil
}
