// Package broadcast implements the broadcast lifecycle and join-request
// coordination engine: creating time-bounded broadcasts, listing and
// searching them, accepting join requests from other users, and recording
// the creator's accept/reject decisions.
//
// # Model
//
// A Broadcast is created active with a strictly future deadline and expires
// once the deadline passes. The transition is monotonic: an expired
// broadcast never becomes active again. Each broadcast embeds an ordered
// list of JoinRequests, at most one per user, each moving from pending to
// accepted or rejected by the creator's decision.
//
// Expiry is time-derived: every check re-derives the effective status from
// the deadline against the current time rather than trusting the stored
// status field, which the background sweeper (core/sweeper) flips durably
// on its own cadence. A broadcast whose deadline passed a millisecond ago
// already rejects join requests even if the sweeper has not run yet.
//
// # Consistency contract
//
// The Storage interface is the single source of truth. Implementations must
// express every mutation as a conditional, field-scoped atomic update
// (appending a join request, deciding one, flipping status) so concurrent
// writers on the same broadcast serialize without engine-level locking.
// The one-request-per-user invariant in particular is enforced at the
// storage level: of two concurrent RequestJoin calls by the same user,
// exactly one append succeeds and the loser sees ErrAlreadyRequested.
//
// The optional listing cache (core/cache) holds only the active-broadcasts
// listing with a short TTL. Writers invalidate it best-effort; a failed
// invalidation bounds staleness at the TTL but never fails the write. The
// Get path is never cached.
//
// # Usage
//
//	import "github.com/dmitrymomot/broadcastkit/core/broadcast"
//
//	engine, err := broadcast.NewEngine(storage,
//		broadcast.WithCache(listingCache),
//		broadcast.WithNotifier(notifyQueue),
//		broadcast.WithLogger(log),
//	)
//
//	b, err := engine.Create(ctx, creatorID, broadcast.CreateParams{
//		Title:       "Morning run",
//		Description: "5k around the park, all paces welcome",
//		ExpiresAt:   time.Now().Add(2 * time.Hour),
//	})
//
//	err = engine.RequestJoin(ctx, joinerID, b.ID.String())
//	err = engine.DecideJoinRequest(ctx, creatorID, b.ID.String(), joinerID, broadcast.JoinStatusAccepted)
//
// RequestJoin persists the request first and then enqueues a notification
// event through the Notifier; enqueue failure is logged and never surfaced,
// because notifications are best-effort while the join request itself is
// durable.
//
// MemoryStorage backs tests and local development. Production backends live
// in integration/database/mongo (embedded sub-list) and
// integration/database/pg (normalized join_requests table).
package broadcast
