package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/broadcastkit/core/notify"
)

// NotificationRepository implements the notification queue storage on two
// MongoDB collections: an active queue and a dead-letter archive. Claiming
// is a single FindOneAndUpdate, so the lock lease is granted atomically and
// two polling workers can never hold the same message.
type NotificationRepository struct {
	queue      *mongo.Collection
	deadLetter *mongo.Collection
}

// NewNotificationRepository creates a repository over the "notifications"
// and "notifications_dead_letter" collections of the given database.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		queue:      db.Collection("notifications"),
		deadLetter: db.Collection("notifications_dead_letter"),
	}
}

// EnsureIndexes creates the indexes the claim query depends on.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.queue.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "locked_until", Value: 1}, {Key: "enqueued_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure notification indexes: %w", err)
	}
	return nil
}

type messageDoc struct {
	ID          string     `bson:"_id"`
	BroadcastID string     `bson:"broadcast_id"`
	RequesterID string     `bson:"requester_id"`
	Status      string     `bson:"status"`
	Attempts    int32      `bson:"attempts"`
	MaxAttempts int32      `bson:"max_attempts"`
	LastError   *string    `bson:"last_error,omitempty"`
	LockedUntil *time.Time `bson:"locked_until,omitempty"`
	LockedBy    *string    `bson:"locked_by,omitempty"`
	EnqueuedAt  time.Time  `bson:"enqueued_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

func toMessageDoc(msg *notify.Message) messageDoc {
	doc := messageDoc{
		ID:          msg.ID.String(),
		BroadcastID: msg.BroadcastID.String(),
		RequesterID: msg.RequesterID.String(),
		Status:      string(msg.Status),
		Attempts:    int32(msg.Attempts),
		MaxAttempts: int32(msg.MaxAttempts),
		LastError:   msg.LastError,
		LockedUntil: msg.LockedUntil,
		EnqueuedAt:  msg.EnqueuedAt.UTC(),
		ProcessedAt: msg.ProcessedAt,
	}
	if msg.LockedBy != nil {
		lockedBy := msg.LockedBy.String()
		doc.LockedBy = &lockedBy
	}
	return doc
}

func (doc messageDoc) toMessage() (*notify.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed message id %q: %w", doc.ID, err)
	}
	broadcastID, err := uuid.Parse(doc.BroadcastID)
	if err != nil {
		return nil, fmt.Errorf("malformed broadcast id %q: %w", doc.BroadcastID, err)
	}
	requesterID, err := uuid.Parse(doc.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("malformed requester id %q: %w", doc.RequesterID, err)
	}

	msg := &notify.Message{
		ID:          id,
		BroadcastID: broadcastID,
		RequesterID: requesterID,
		Status:      notify.MessageStatus(doc.Status),
		Attempts:    int8(doc.Attempts),
		MaxAttempts: int8(doc.MaxAttempts),
		LastError:   doc.LastError,
		LockedUntil: doc.LockedUntil,
		EnqueuedAt:  doc.EnqueuedAt,
		ProcessedAt: doc.ProcessedAt,
	}
	if doc.LockedBy != nil {
		lockedBy, err := uuid.Parse(*doc.LockedBy)
		if err != nil {
			return nil, fmt.Errorf("malformed worker id %q: %w", *doc.LockedBy, err)
		}
		msg.LockedBy = &lockedBy
	}
	return msg, nil
}

// Enqueue persists a new pending message.
func (r *NotificationRepository) Enqueue(ctx context.Context, msg *notify.Message) error {
	if _, err := r.queue.InsertOne(ctx, toMessageDoc(msg)); err != nil {
		return fmt.Errorf("failed to enqueue notification %s: %w", msg.ID, err)
	}
	return nil
}

// Claim atomically claims the oldest claimable message and grants the
// worker a lock lease of lockFor.
func (r *NotificationRepository) Claim(ctx context.Context, workerID uuid.UUID, lockFor time.Duration) (*notify.Message, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": string(notify.MessageStatusPending)},
		bson.M{
			"status":       string(notify.MessageStatusProcessing),
			"locked_until": bson.M{"$lt": now},
		},
	}}
	update := bson.M{"$set": bson.M{
		"status":       string(notify.MessageStatusProcessing),
		"locked_until": now.Add(lockFor),
		"locked_by":    workerID.String(),
	}}

	var doc messageDoc
	err := r.queue.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "enqueued_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notify.ErrNoMessage
		}
		return nil, fmt.Errorf("failed to claim notification: %w", err)
	}
	return doc.toMessage()
}

// Complete marks the message delivered and releases its lock.
func (r *NotificationRepository) Complete(ctx context.Context, id uuid.UUID) error {
	update := bson.M{
		"$set":   bson.M{"status": string(notify.MessageStatusCompleted), "processed_at": time.Now().UTC()},
		"$unset": bson.M{"locked_until": "", "locked_by": ""},
	}
	res, err := r.queue.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to complete notification %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return notify.ErrMessageNotFound
	}
	return nil
}

// Fail records the delivery error, increments the attempt counter, and
// re-pends the message for retry.
func (r *NotificationRepository) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	update := bson.M{
		"$set":   bson.M{"status": string(notify.MessageStatusPending), "last_error": errMsg},
		"$inc":   bson.M{"attempts": 1},
		"$unset": bson.M{"locked_until": "", "locked_by": ""},
	}
	res, err := r.queue.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to record notification failure %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return notify.ErrMessageNotFound
	}
	return nil
}

// MoveToDeadLetter moves the message out of the active queue into the
// dead-letter collection.
func (r *NotificationRepository) MoveToDeadLetter(ctx context.Context, id uuid.UUID) error {
	var doc messageDoc
	err := r.queue.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notify.ErrMessageNotFound
		}
		return fmt.Errorf("failed to remove notification %s from queue: %w", id, err)
	}

	var lastErr string
	if doc.LastError != nil {
		lastErr = *doc.LastError
	}
	letter := bson.M{
		"_id":          uuid.New().String(),
		"message_id":   doc.ID,
		"broadcast_id": doc.BroadcastID,
		"requester_id": doc.RequesterID,
		"error":        lastErr,
		"attempts":     doc.Attempts,
		"failed_at":    time.Now().UTC(),
		"enqueued_at":  doc.EnqueuedAt,
	}
	if _, err := r.deadLetter.InsertOne(ctx, letter); err != nil {
		return fmt.Errorf("failed to dead-letter notification %s: %w", id, err)
	}
	return nil
}
