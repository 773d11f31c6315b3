package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/broadcastkit/core/notify"
)

// NotificationRepository implements the notification queue storage on
// PostgreSQL. Claiming uses FOR UPDATE SKIP LOCKED so concurrent workers
// never contend on the same row and never block each other.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a repository over the given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) q(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

// Enqueue persists a new pending message. It participates in a transaction
// carried in the context, which is what makes persist-then-enqueue safe to
// run atomically with the domain write when the caller wants outbox
// semantics.
func (r *NotificationRepository) Enqueue(ctx context.Context, msg *notify.Message) error {
	const q = `INSERT INTO notifications
			(id, broadcast_id, requester_id, status, attempts, max_attempts, last_error,
			 locked_until, locked_by, enqueued_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q(ctx).Exec(ctx, q,
		msg.ID, msg.BroadcastID, msg.RequesterID, string(msg.Status),
		int16(msg.Attempts), int16(msg.MaxAttempts), msg.LastError,
		msg.LockedUntil, msg.LockedBy, msg.EnqueuedAt, msg.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification %s: %w", msg.ID, err)
	}
	return nil
}

// Claim atomically claims the oldest claimable message and grants the
// worker a lock lease of lockFor.
func (r *NotificationRepository) Claim(ctx context.Context, workerID uuid.UUID, lockFor time.Duration) (*notify.Message, error) {
	const q = `UPDATE notifications SET
			status = 'processing',
			locked_until = $1,
			locked_by = $2
		WHERE id = (
			SELECT id FROM notifications
			WHERE status = 'pending'
			   OR (status = 'processing' AND locked_until < now())
			ORDER BY enqueued_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, broadcast_id, requester_id, status, attempts, max_attempts,
			last_error, locked_until, locked_by, enqueued_at, processed_at`

	msg, err := scanMessage(r.q(ctx).QueryRow(ctx, q, time.Now().Add(lockFor), workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notify.ErrNoMessage
		}
		return nil, fmt.Errorf("failed to claim notification: %w", err)
	}
	return msg, nil
}

// Complete marks the message delivered and releases its lock.
func (r *NotificationRepository) Complete(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET
			status = 'completed',
			processed_at = now(),
			locked_until = NULL,
			locked_by = NULL
		WHERE id = $1`
	tag, err := r.q(ctx).Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to complete notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrMessageNotFound
	}
	return nil
}

// Fail records the delivery error, increments the attempt counter, and
// re-pends the message for retry.
func (r *NotificationRepository) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE notifications SET
			status = 'pending',
			attempts = attempts + 1,
			last_error = $2,
			locked_until = NULL,
			locked_by = NULL
		WHERE id = $1`
	tag, err := r.q(ctx).Exec(ctx, q, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record notification failure %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrMessageNotFound
	}
	return nil
}

// MoveToDeadLetter moves the message out of the active queue into the
// dead-letter table in one statement.
func (r *NotificationRepository) MoveToDeadLetter(ctx context.Context, id uuid.UUID) error {
	const q = `WITH moved AS (
			DELETE FROM notifications WHERE id = $1
			RETURNING id, broadcast_id, requester_id, last_error, attempts, enqueued_at
		)
		INSERT INTO notifications_dead_letter
			(id, message_id, broadcast_id, requester_id, error, attempts, failed_at, enqueued_at)
		SELECT $2, id, broadcast_id, requester_id, COALESCE(last_error, ''), attempts, now(), enqueued_at
		FROM moved`

	tag, err := r.q(ctx).Exec(ctx, q, id, uuid.New())
	if err != nil {
		return fmt.Errorf("failed to dead-letter notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrMessageNotFound
	}
	return nil
}

func scanMessage(row pgx.Row) (*notify.Message, error) {
	var (
		msg      notify.Message
		status   string
		attempts int16
		maxAtt   int16
	)
	err := row.Scan(&msg.ID, &msg.BroadcastID, &msg.RequesterID, &status, &attempts, &maxAtt,
		&msg.LastError, &msg.LockedUntil, &msg.LockedBy, &msg.EnqueuedAt, &msg.ProcessedAt)
	if err != nil {
		return nil, err
	}
	msg.Status = notify.MessageStatus(status)
	msg.Attempts = int8(attempts)
	msg.MaxAttempts = int8(maxAtt)
	return &msg, nil
}
