package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
)

// BroadcastRepository implements the broadcast storage contract on a MongoDB
// collection. A broadcast is one document with its join requests embedded,
// so every gate (active status, future deadline, per-user uniqueness) is
// expressed inside a single conditional update and decided atomically by the
// server.
type BroadcastRepository struct {
	coll *mongo.Collection
}

// NewBroadcastRepository creates a repository over the "broadcasts"
// collection of the given database.
func NewBroadcastRepository(db *mongo.Database) *BroadcastRepository {
	return &BroadcastRepository{coll: db.Collection("broadcasts")}
}

// EnsureIndexes creates the indexes the repository's queries depend on.
// Safe to call on every startup; existing indexes are left untouched.
func (r *BroadcastRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "join_requests.user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to ensure broadcast indexes: %w", err)
	}
	return nil
}

// UUIDs are stored as canonical strings rather than driver-specific binary
// so documents stay readable in shells and portable across driver versions.
type joinRequestDoc struct {
	UserID      string     `bson:"user_id"`
	Status      string     `bson:"status"`
	RequestedAt time.Time  `bson:"requested_at"`
	DecidedAt   *time.Time `bson:"decided_at,omitempty"`
}

type broadcastDoc struct {
	ID           string           `bson:"_id"`
	Title        string           `bson:"title"`
	Description  string           `bson:"description"`
	CreatorID    string           `bson:"creator_id"`
	Status       string           `bson:"status"`
	JoinRequests []joinRequestDoc `bson:"join_requests"`
	CreatedAt    time.Time        `bson:"created_at"`
	ExpiresAt    time.Time        `bson:"expires_at"`
}

func toBroadcastDoc(b *broadcast.Broadcast) broadcastDoc {
	doc := broadcastDoc{
		ID:           b.ID.String(),
		Title:        b.Title,
		Description:  b.Description,
		CreatorID:    b.CreatorID.String(),
		Status:       string(b.Status),
		JoinRequests: make([]joinRequestDoc, 0, len(b.JoinRequests)),
		CreatedAt:    b.CreatedAt.UTC(),
		ExpiresAt:    b.ExpiresAt.UTC(),
	}
	for _, req := range b.JoinRequests {
		doc.JoinRequests = append(doc.JoinRequests, toJoinRequestDoc(req))
	}
	return doc
}

func toJoinRequestDoc(req broadcast.JoinRequest) joinRequestDoc {
	doc := joinRequestDoc{
		UserID:      req.UserID.String(),
		Status:      string(req.Status),
		RequestedAt: req.RequestedAt.UTC(),
	}
	if req.DecidedAt != nil {
		at := req.DecidedAt.UTC()
		doc.DecidedAt = &at
	}
	return doc
}

func (doc broadcastDoc) toBroadcast() (*broadcast.Broadcast, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed broadcast id %q: %w", doc.ID, err)
	}
	creatorID, err := uuid.Parse(doc.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("malformed creator id %q: %w", doc.CreatorID, err)
	}

	b := &broadcast.Broadcast{
		ID:           id,
		Title:        doc.Title,
		Description:  doc.Description,
		CreatorID:    creatorID,
		Status:       broadcast.Status(doc.Status),
		JoinRequests: make([]broadcast.JoinRequest, 0, len(doc.JoinRequests)),
		CreatedAt:    doc.CreatedAt,
		ExpiresAt:    doc.ExpiresAt,
	}
	for _, req := range doc.JoinRequests {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, fmt.Errorf("malformed join request user id %q: %w", req.UserID, err)
		}
		b.JoinRequests = append(b.JoinRequests, broadcast.JoinRequest{
			UserID:      userID,
			Status:      broadcast.JoinStatus(req.Status),
			RequestedAt: req.RequestedAt,
			DecidedAt:   req.DecidedAt,
		})
	}
	return b, nil
}

// newestFirst orders by creation time descending with the id as a
// deterministic tiebreak.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}

// CreateBroadcast persists a new broadcast.
func (r *BroadcastRepository) CreateBroadcast(ctx context.Context, b *broadcast.Broadcast) error {
	if _, err := r.coll.InsertOne(ctx, toBroadcastDoc(b)); err != nil {
		return fmt.Errorf("failed to insert broadcast %s: %w", b.ID, err)
	}
	return nil
}

// GetBroadcast returns the broadcast with the given id.
func (r *BroadcastRepository) GetBroadcast(ctx context.Context, id uuid.UUID) (*broadcast.Broadcast, error) {
	var doc broadcastDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, broadcast.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load broadcast %s: %w", id, err)
	}
	return doc.toBroadcast()
}

// ListActive returns broadcasts with active status and a deadline strictly
// after now, newest first.
func (r *BroadcastRepository) ListActive(ctx context.Context, now time.Time) ([]broadcast.Broadcast, error) {
	filter := bson.M{
		"status":     string(broadcast.StatusActive),
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to list active broadcasts: %w", err)
	}
	return decodeBroadcasts(ctx, cursor)
}

// SearchBroadcasts returns the matching page and the total match count.
func (r *BroadcastRepository) SearchBroadcasts(ctx context.Context, f broadcast.Filter) ([]broadcast.Broadcast, int64, error) {
	filter := bson.M{}
	if f.Keyword != "" {
		keyword := bson.M{"$regex": regexp.QuoteMeta(f.Keyword), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": keyword},
			bson.M{"description": keyword},
		}
	}
	if f.Status != nil {
		filter["status"] = string(*f.Status)
	}
	created := bson.M{}
	if f.CreatedAfter != nil {
		created["$gte"] = f.CreatedAfter.UTC()
	}
	if f.CreatedBefore != nil {
		created["$lte"] = f.CreatedBefore.UTC()
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count broadcasts: %w", err)
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search broadcasts: %w", err)
	}
	list, err := decodeBroadcasts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateBroadcast applies the supplied fields as one conditional update
// gated on the broadcast still being active with a future deadline.
func (r *BroadcastRepository) UpdateBroadcast(ctx context.Context, id uuid.UUID, upd broadcast.Update, now time.Time) (*broadcast.Broadcast, error) {
	set := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.ExpiresAt != nil {
		set["expires_at"] = upd.ExpiresAt.UTC()
	}

	filter := bson.M{
		"_id":        id.String(),
		"status":     string(broadcast.StatusActive),
		"expires_at": bson.M{"$gt": now.UTC()},
	}

	var doc broadcastDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The gate failed: either the broadcast is gone or it is expired.
			if _, getErr := r.GetBroadcast(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, broadcast.ErrExpired
		}
		return nil, fmt.Errorf("failed to update broadcast %s: %w", id, err)
	}
	return doc.toBroadcast()
}

// DeleteBroadcast permanently removes the broadcast and its embedded join
// requests.
func (r *BroadcastRepository) DeleteBroadcast(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete broadcast %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return broadcast.ErrNotFound
	}
	return nil
}

// AddJoinRequest atomically appends a join request. The filter carries all
// three gates, so two concurrent requests by the same user resolve to
// exactly one matched update on the server.
func (r *BroadcastRepository) AddJoinRequest(ctx context.Context, id uuid.UUID, req broadcast.JoinRequest, now time.Time) error {
	filter := bson.M{
		"_id":                   id.String(),
		"status":                string(broadcast.StatusActive),
		"expires_at":            bson.M{"$gt": now.UTC()},
		"join_requests.user_id": bson.M{"$ne": req.UserID.String()},
	}
	update := bson.M{"$push": bson.M{"join_requests": toJoinRequestDoc(req)}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add join request to broadcast %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return r.classifyJoinFailure(ctx, id, req.UserID, now)
	}
	return nil
}

// classifyJoinFailure re-reads the broadcast to map an unmatched conditional
// append onto the gate that rejected it.
func (r *BroadcastRepository) classifyJoinFailure(ctx context.Context, id, userID uuid.UUID, now time.Time) error {
	b, err := r.GetBroadcast(ctx, id)
	if err != nil {
		return err
	}
	return joinFailure(b, userID, now)
}

// joinFailure picks the join gate that rejected the append given the
// broadcast's current state.
func joinFailure(b *broadcast.Broadcast, userID uuid.UUID, now time.Time) error {
	if _, ok := b.JoinRequestBy(userID); ok {
		return broadcast.ErrAlreadyRequested
	}
	if b.ExpiredAt(now) {
		return broadcast.ErrExpired
	}
	// The state changed again between update and read; the caller sees the
	// uniqueness gate, which is the one a retry would hit.
	return broadcast.ErrAlreadyRequested
}

// DecideJoinRequest sets the decision on the user's join request as a
// positional atomic update.
func (r *BroadcastRepository) DecideJoinRequest(ctx context.Context, id, userID uuid.UUID, decision broadcast.JoinStatus, decidedAt time.Time, overwrite bool) error {
	filter := bson.M{"_id": id.String()}
	if overwrite {
		filter["join_requests.user_id"] = userID.String()
	} else {
		filter["join_requests"] = bson.M{"$elemMatch": bson.M{
			"user_id": userID.String(),
			"status":  string(broadcast.JoinStatusPending),
		}}
	}
	update := bson.M{"$set": bson.M{
		"join_requests.$.status":     string(decision),
		"join_requests.$.decided_at": decidedAt.UTC(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decide join request on broadcast %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
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
	filter := bson.M{
		"status":     string(broadcast.StatusActive),
		"expires_at": bson.M{"$lte": now.UTC()},
	}
	update := bson.M{"$set": bson.M{"status": string(broadcast.StatusExpired)}}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire due broadcasts: %w", err)
	}
	return res.ModifiedCount, nil
}

func decodeBroadcasts(ctx context.Context, cursor *mongo.Cursor) ([]broadcast.Broadcast, error) {
	defer cursor.Close(ctx)

	var list []broadcast.Broadcast
	for cursor.Next(ctx) {
		var doc broadcastDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode broadcast: %w", err)
		}
		b, err := doc.toBroadcast()
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate broadcasts: %w", err)
	}
	return list, nil
}
