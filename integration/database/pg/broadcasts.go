package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
)

// querier is the subset of pgx shared by pools and transactions, so
// repositories transparently join a transaction carried in the context.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BroadcastRepository implements the broadcast storage contract on
// PostgreSQL. Broadcasts and join requests live in separate tables; the
// per-user uniqueness gate is the (broadcast_id, user_id) primary key, so
// concurrent duplicate requests are resolved by the database rather than by
// any read-modify-write cycle.
type BroadcastRepository struct {
	pool *pgxpool.Pool
}

// NewBroadcastRepository creates a repository over the given pool.
func NewBroadcastRepository(pool *pgxpool.Pool) *BroadcastRepository {
	return &BroadcastRepository{pool: pool}
}

func (r *BroadcastRepository) q(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

// CreateBroadcast persists a new broadcast.
func (r *BroadcastRepository) CreateBroadcast(ctx context.Context, b *broadcast.Broadcast) error {
	const q = `INSERT INTO broadcasts (id, title, description, creator_id, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q(ctx).Exec(ctx, q,
		b.ID, b.Title, b.Description, b.CreatorID, string(b.Status), b.CreatedAt, b.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert broadcast %s: %w", b.ID, err)
	}
	return nil
}

// GetBroadcast returns the broadcast with its join requests.
func (r *BroadcastRepository) GetBroadcast(ctx context.Context, id uuid.UUID) (*broadcast.Broadcast, error) {
	const q = `SELECT id, title, description, creator_id, status, created_at, expires_at
		FROM broadcasts WHERE id = $1`

	b, err := scanBroadcast(r.q(ctx).QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, broadcast.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load broadcast %s: %w", id, err)
	}

	if err := r.attachJoinRequests(ctx, []*broadcast.Broadcast{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListActive returns broadcasts with active status and a deadline strictly
// after now, newest first.
func (r *BroadcastRepository) ListActive(ctx context.Context, now time.Time) ([]broadcast.Broadcast, error) {
	const q = `SELECT id, title, description, creator_id, status, created_at, expires_at
		FROM broadcasts
		WHERE status = 'active' AND expires_at > $1
		ORDER BY created_at DESC, id`

	rows, err := r.q(ctx).Query(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active broadcasts: %w", err)
	}
	list, err := scanBroadcasts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachJoinRequestsSlice(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchBroadcasts returns the matching page and the total match count.
func (r *BroadcastRepository) SearchBroadcasts(ctx context.Context, f broadcast.Filter) ([]broadcast.Broadcast, int64, error) {
	where := "TRUE"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Keyword != "" {
		p := arg("%" + f.Keyword + "%")
		where += fmt.Sprintf(" AND (title ILIKE %s OR description ILIKE %s)", p, p)
	}
	if f.Status != nil {
		where += " AND status = " + arg(string(*f.Status))
	}
	if f.CreatedAfter != nil {
		where += " AND created_at >= " + arg(*f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		where += " AND created_at <= " + arg(*f.CreatedBefore)
	}

	var total int64
	countQuery := "SELECT count(*) FROM broadcasts WHERE " + where
	if err := r.q(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count broadcasts: %w", err)
	}

	pageQuery := fmt.Sprintf(`SELECT id, title, description, creator_id, status, created_at, expires_at
		FROM broadcasts WHERE %s
		ORDER BY created_at DESC, id
		OFFSET %s LIMIT %s`, where, arg(f.Offset), arg(f.Limit))

	rows, err := r.q(ctx).Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search broadcasts: %w", err)
	}
	list, err := scanBroadcasts(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachJoinRequestsSlice(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateBroadcast applies the supplied fields as one conditional update
// gated on the broadcast still being active with a future deadline.
func (r *BroadcastRepository) UpdateBroadcast(ctx context.Context, id uuid.UUID, upd broadcast.Update, now time.Time) (*broadcast.Broadcast, error) {
	const q = `UPDATE broadcasts SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			expires_at = COALESCE($4, expires_at)
		WHERE id = $1 AND status = 'active' AND expires_at > $5
		RETURNING id, title, description, creator_id, status, created_at, expires_at`

	b, err := scanBroadcast(r.q(ctx).QueryRow(ctx, q, id, upd.Title, upd.Description, upd.ExpiresAt, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The gate failed: either the broadcast is gone or it is expired.
			if _, getErr := r.GetBroadcast(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, broadcast.ErrExpired
		}
		return nil, fmt.Errorf("failed to update broadcast %s: %w", id, err)
	}

	if err := r.attachJoinRequests(ctx, []*broadcast.Broadcast{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBroadcast permanently removes the broadcast; its join requests go
// with it via ON DELETE CASCADE.
func (r *BroadcastRepository) DeleteBroadcast(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM broadcasts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete broadcast %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return broadcast.ErrNotFound
	}
	return nil
}

// AddJoinRequest atomically appends a join request. The insert is gated on
// the broadcast row in the same statement; a duplicate resolves through the
// primary key, so exactly one of two concurrent same-user requests wins.
func (r *BroadcastRepository) AddJoinRequest(ctx context.Context, id uuid.UUID, req broadcast.JoinRequest, now time.Time) error {
	const q = `INSERT INTO join_requests (broadcast_id, user_id, status, requested_at, decided_at)
		SELECT b.id, $2, $3, $4, NULL
		FROM broadcasts b
		WHERE b.id = $1 AND b.status = 'active' AND b.expires_at > $5
		ON CONFLICT (broadcast_id, user_id) DO NOTHING`

	tag, err := r.q(ctx).Exec(ctx, q, id, req.UserID, string(req.Status), req.RequestedAt, now)
	if err != nil {
		return fmt.Errorf("failed to add join request to broadcast %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyJoinFailure(ctx, id, req.UserID, now)
	}
	return nil
}

// classifyJoinFailure re-reads the broadcast to map a zero-row conditional
// insert onto the gate that rejected it.
func (r *BroadcastRepository) classifyJoinFailure(ctx context.Context, id, userID uuid.UUID, now time.Time) error {
	b, err := r.GetBroadcast(ctx, id)
	if err != nil {
		return err
	}
	return joinFailure(b, userID, now)
}

// joinFailure picks the join gate that rejected the insert given the
// broadcast's current state.
func joinFailure(b *broadcast.Broadcast, userID uuid.UUID, now time.Time) error {
	if _, ok := b.JoinRequestBy(userID); ok {
		return broadcast.ErrAlreadyRequested
	}
	if b.ExpiredAt(now) {
		return broadcast.ErrExpired
	}
	return broadcast.ErrAlreadyRequested
}

// DecideJoinRequest sets the decision on the user's join request.
func (r *BroadcastRepository) DecideJoinRequest(ctx context.Context, id, userID uuid.UUID, decision broadcast.JoinStatus, decidedAt time.Time, overwrite bool) error {
	q := `UPDATE join_requests SET status = $3, decided_at = $4
		WHERE broadcast_id = $1 AND user_id = $2`
	if !overwrite {
		q += ` AND status = 'pending'`
	}

	tag, err := r.q(ctx).Exec(ctx, q, id, userID, string(decision), decidedAt)
	if err != nil {
		return fmt.Errorf("failed to decide join request on broadcast %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		b, err := r.GetBroadcast(ctx, id)
		if err != nil {
			return err
		}
		return decideFailure(b, userID)
	}
	return nil
}

// decideFailure picks the decision gate that rejected the update given the
// broadcast's current state.
func decideFailure(b *broadcast.Broadcast, userID uuid.UUID) error {
	if _, ok := b.JoinRequestBy(userID); !ok {
		return broadcast.ErrRequestNotFound
	}
	return broadcast.ErrAlreadyDecided
}

// ExpireDue flips every due active broadcast to expired in one set-based
// update.
func (r *BroadcastRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE broadcasts SET status = 'expired'
		WHERE status = 'active' AND expires_at <= $1`
	tag, err := r.q(ctx).Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire due broadcasts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BroadcastRepository) attachJoinRequestsSlice(ctx context.Context, list []broadcast.Broadcast) error {
	ptrs := make([]*broadcast.Broadcast, len(list))
	for i := range list {
		ptrs[i] = &list[i]
	}
	return r.attachJoinRequests(ctx, ptrs)
}

// attachJoinRequests loads the join request rows for the given broadcasts in
// one query.
func (r *BroadcastRepository) attachJoinRequests(ctx context.Context, list []*broadcast.Broadcast) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(list))
	byID := make(map[uuid.UUID]*broadcast.Broadcast, len(list))
	for _, b := range list {
		b.JoinRequests = []broadcast.JoinRequest{}
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}

	const q = `SELECT broadcast_id, user_id, status, requested_at, decided_at
		FROM join_requests
		WHERE broadcast_id = ANY($1)
		ORDER BY requested_at, user_id`

	rows, err := r.q(ctx).Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("failed to load join requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			broadcastID uuid.UUID
			req         broadcast.JoinRequest
			status      string
		)
		if err := rows.Scan(&broadcastID, &req.UserID, &status, &req.RequestedAt, &req.DecidedAt); err != nil {
			return fmt.Errorf("failed to scan join request: %w", err)
		}
		req.Status = broadcast.JoinStatus(status)
		if b, ok := byID[broadcastID]; ok {
			b.JoinRequests = append(b.JoinRequests, req)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate join requests: %w", err)
	}
	return nil
}

func scanBroadcast(row pgx.Row) (*broadcast.Broadcast, error) {
	var (
		b      broadcast.Broadcast
		status string
	)
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.CreatorID, &status, &b.CreatedAt, &b.ExpiresAt)
	if err != nil {
		return nil, err
	}
	b.Status = broadcast.Status(status)
	return &b, nil
}

func scanBroadcasts(rows pgx.Rows) ([]broadcast.Broadcast, error) {
	defer rows.Close()

	var list []broadcast.Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		list = append(list, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate broadcasts: %w", err)
	}
	return list, nil
}
