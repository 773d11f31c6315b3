package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/broadcastkit/core/cache"
	"github.com/dmitrymomot/broadcastkit/core/logger"
)

// listingCacheKey is the only cached artifact: the active-broadcasts listing.
const listingCacheKey = "broadcasts:active"

// Pagination bounds applied by Search when the caller omits or oversizes them.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Engine enforces the broadcast lifecycle rules and mediates between the
// authoritative storage, the listing cache, and the notification queue.
// Storage is the single source of truth; the cache and the queue are
// auxiliary and their unavailability never fails a storage-backed operation.
//
// All methods take the caller identity explicitly. The engine assumes inputs
// are structurally valid (per the request layer's contract) and re-checks
// only domain rules: future-dated expiry, uniqueness, authorization, and the
// time-based expiry tie-break.
type Engine struct {
	storage       Storage
	cache         cache.Cache
	notifier      Notifier
	logger        *slog.Logger
	now           func() time.Time
	listingTTL    time.Duration
	allowRedecide bool
}

// NewEngine creates an engine over the given storage backend.
func NewEngine(storage Storage, opts ...EngineOption) (*Engine, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := &engineOptions{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		listingTTL:    DefaultConfig().ListingTTL,
		allowRedecide: DefaultConfig().AllowRedecide,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Engine{
		storage:       storage,
		cache:         options.cache,
		notifier:      options.notifier,
		logger:        options.logger,
		now:           options.now,
		listingTTL:    options.listingTTL,
		allowRedecide: options.allowRedecide,
	}, nil
}

// NewEngineFromConfig creates an engine from configuration.
// Storage must be provided. Additional options can override config values.
func NewEngineFromConfig(cfg Config, storage Storage, opts ...EngineOption) (*Engine, error) {
	allOpts := append([]EngineOption{
		WithListingTTL(cfg.ListingTTL),
		WithAllowRedecide(cfg.AllowRedecide),
	}, opts...)

	return NewEngine(storage, allOpts...)
}

// CreateParams carries the creator-supplied fields of a new broadcast.
type CreateParams struct {
	Title       string
	Description string
	ExpiresAt   time.Time
}

// Create persists a new active broadcast with an empty join-request list and
// invalidates the cached listing. The expiry must be strictly in the future
// at the moment of the call.
func (e *Engine) Create(ctx context.Context, creatorID uuid.UUID, params CreateParams) (*Broadcast, error) {
	if creatorID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	now := e.now()
	if !params.ExpiresAt.After(now) {
		return nil, ErrExpiryInPast
	}

	b := &Broadcast{
		ID:           uuid.New(),
		Title:        params.Title,
		Description:  params.Description,
		CreatorID:    creatorID,
		Status:       StatusActive,
		JoinRequests: []JoinRequest{},
		CreatedAt:    now,
		ExpiresAt:    params.ExpiresAt,
	}

	if err := e.storage.CreateBroadcast(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}

	e.invalidateListing(ctx)

	return b, nil
}

// ListActive returns broadcasts that are active with a deadline still in the
// future, consulting the cache first. Any cache failure, including timeout,
// degrades to a direct storage read. Entries whose deadline passed since the
// listing was cached are filtered out before returning.
func (e *Engine) ListActive(ctx context.Context) ([]Broadcast, error) {
	now := e.now()

	if e.cache != nil {
		if data, err := e.cache.Get(ctx, listingCacheKey); err == nil {
			var cached []Broadcast
			if err := json.Unmarshal(data, &cached); err == nil {
				return filterUnexpired(cached, now), nil
			}
			e.logger.WarnContext(ctx, "discarding undecodable cached listing",
				logger.Component("broadcast"),
				logger.CacheKey(listingCacheKey))
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.WarnContext(ctx, "listing cache read failed, falling back to storage",
				logger.Component("broadcast"),
				logger.CacheKey(listingCacheKey),
				logger.Error(err))
		}
	}

	list, err := e.storage.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active broadcasts: %w", err)
	}

	if e.cache != nil {
		if data, err := json.Marshal(list); err == nil {
			if err := e.cache.Set(ctx, listingCacheKey, data, e.listingTTL); err != nil {
				e.logger.WarnContext(ctx, "failed to populate listing cache",
					logger.Component("broadcast"),
					logger.CacheKey(listingCacheKey),
					logger.Error(err))
			}
		}
	}

	return list, nil
}

// Get returns the broadcast with the given id. Never cached: this is the
// authoritative read path.
func (e *Engine) Get(ctx context.Context, id string) (*Broadcast, error) {
	broadcastID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return e.storage.GetBroadcast(ctx, broadcastID)
}

// SearchQuery carries the optional filters and pagination of a search.
type SearchQuery struct {
	Keyword       string
	Status        *Status
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	PageSize      int
}

// Search returns broadcasts matching the query and the total match count.
// Page and page size default to 1 and 20; page size is capped at 100.
func (e *Engine) Search(ctx context.Context, q SearchQuery) ([]Broadcast, int64, error) {
	if q.Status != nil && !q.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *q.Status)
	}

	page := q.Page
	if page <= 0 {
		page = DefaultPage
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	list, total, err := e.storage.SearchBroadcasts(ctx, Filter{
		Keyword:       q.Keyword,
		Status:        q.Status,
		CreatedAfter:  q.CreatedAfter,
		CreatedBefore: q.CreatedBefore,
		Offset:        (page - 1) * size,
		Limit:         size,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search broadcasts: %w", err)
	}
	return list, total, nil
}

// UpdateParams carries the fields of a partial update. Nil fields are left
// unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	ExpiresAt   *time.Time
}

// Update applies the supplied fields to the caller's broadcast and
// invalidates the cached listing. Only the creator may update; a supplied
// expiry must be strictly in the future at the moment of the call; an
// expired broadcast can no longer be updated.
func (e *Engine) Update(ctx context.Context, callerID uuid.UUID, id string, params UpdateParams) (*Broadcast, error) {
	if callerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	broadcastID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := e.storage.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != callerID {
		return nil, ErrForbidden
	}

	upd := Update{Title: params.Title, Description: params.Description, ExpiresAt: params.ExpiresAt}
	if upd.Empty() {
		return current, nil
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if upd.Description != nil && strings.TrimSpace(*upd.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	now := e.now()
	if current.ExpiredAt(now) {
		return nil, ErrExpired
	}
	if upd.ExpiresAt != nil && !upd.ExpiresAt.After(now) {
		return nil, ErrExpiryInPast
	}

	updated, err := e.storage.UpdateBroadcast(ctx, broadcastID, upd, now)
	if err != nil {
		return nil, err
	}

	e.invalidateListing(ctx)

	return updated, nil
}

// Delete permanently removes the caller's broadcast, including its join
// requests, and invalidates the cached listing.
func (e *Engine) Delete(ctx context.Context, callerID uuid.UUID, id string) error {
	if callerID == uuid.Nil {
		return ErrUnauthenticated
	}
	broadcastID, err := parseID(id)
	if err != nil {
		return err
	}

	current, err := e.storage.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return err
	}
	if current.CreatorID != callerID {
		return ErrForbidden
	}

	if err := e.storage.DeleteBroadcast(ctx, broadcastID); err != nil {
		return err
	}

	e.invalidateListing(ctx)

	return nil
}

// RequestJoin appends a pending join request by the caller and enqueues a
// notification event for the creator. The expiry check re-derives the
// effective status from the deadline, so a broadcast whose deadline has
// passed rejects joins even before the sweeper has flipped it. Enqueue
// failure after the request is durably stored is logged and never surfaced:
// notifications are best-effort by design.
func (e *Engine) RequestJoin(ctx context.Context, callerID uuid.UUID, id string) error {
	if callerID == uuid.Nil {
		return ErrUnauthenticated
	}
	broadcastID, err := parseID(id)
	if err != nil {
		return err
	}

	now := e.now()

	current, err := e.storage.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return err
	}
	if current.ExpiredAt(now) {
		return ErrExpired
	}
	if _, exists := current.JoinRequestBy(callerID); exists {
		return ErrAlreadyRequested
	}

	// The storage-level conditional append is the authority on uniqueness;
	// the read above only short-circuits the common duplicate case. When two
	// concurrent calls race past it, exactly one append succeeds.
	req := JoinRequest{
		UserID:      callerID,
		Status:      JoinStatusPending,
		RequestedAt: now,
	}
	if err := e.storage.AddJoinRequest(ctx, broadcastID, req, now); err != nil {
		return err
	}

	if e.notifier != nil {
		if err := e.notifier.EnqueueJoinRequest(ctx, broadcastID, callerID); err != nil {
			e.logger.ErrorContext(ctx, "join request stored but notification enqueue failed",
				logger.Component("broadcast"),
				logger.BroadcastID(broadcastID),
				logger.UserID(callerID),
				logger.Error(err))
		}
	}

	return nil
}

// DecideJoinRequest records the creator's accept/reject decision on a join
// request. Decisions remain possible after expiry; only deletion removes the
// request. Re-deciding an already-decided request is governed by the
// AllowRedecide setting.
func (e *Engine) DecideJoinRequest(ctx context.Context, callerID uuid.UUID, id string, requesterID uuid.UUID, decision JoinStatus) error {
	if callerID == uuid.Nil {
		return ErrUnauthenticated
	}
	broadcastID, err := parseID(id)
	if err != nil {
		return err
	}
	if !decision.Decided() {
		return fmt.Errorf("%w: decision must be %q or %q", ErrInvalidInput, JoinStatusAccepted, JoinStatusRejected)
	}

	current, err := e.storage.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return err
	}
	if current.CreatorID != callerID {
		return ErrForbidden
	}

	return e.storage.DecideJoinRequest(ctx, broadcastID, requesterID, decision, e.now(), e.allowRedecide)
}

// invalidateListing deletes the cached active-broadcasts listing. Failure is
// logged and swallowed: the cache is bounded-staleness by contract and must
// never fail a storage mutation that already succeeded.
func (e *Engine) invalidateListing(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, listingCacheKey); err != nil {
		e.logger.WarnContext(ctx, "failed to invalidate listing cache",
			logger.Component("broadcast"),
			logger.CacheKey(listingCacheKey),
			logger.Error(err))
	}
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed, nil
}

func filterUnexpired(list []Broadcast, now time.Time) []Broadcast {
	out := list[:0]
	for _, b := range list {
		if !b.ExpiredAt(now) {
			out = append(out, b)
		}
	}
	return out
}
