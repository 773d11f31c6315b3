package pg

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
)

func testBroadcast(expiresAt time.Time, reqs ...broadcast.JoinRequest) *broadcast.Broadcast {
	return &broadcast.Broadcast{
		ID:           uuid.New(),
		Title:        "garage sale",
		Description:  "everything must go",
		CreatorID:    uuid.New(),
		Status:       broadcast.StatusActive,
		JoinRequests: reqs,
		CreatedAt:    time.Now().Add(-time.Hour),
		ExpiresAt:    expiresAt,
	}
}

func TestJoinFailure(t *testing.T) {
	t.Parallel()

	now := time.Now()
	userID := uuid.New()

	t.Run("existing request wins over expiry", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast(now.Add(-time.Minute), broadcast.JoinRequest{
			UserID:      userID,
			Status:      broadcast.JoinStatusPending,
			RequestedAt: now.Add(-time.Hour),
		})
		assert.ErrorIs(t, joinFailure(b, userID, now), broadcast.ErrAlreadyRequested)
	})

	t.Run("expired without a request", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast(now.Add(-time.Minute))
		assert.ErrorIs(t, joinFailure(b, userID, now), broadcast.ErrExpired)
	})

	t.Run("state changed between update and read", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast(now.Add(time.Hour))
		assert.ErrorIs(t, joinFailure(b, userID, now), broadcast.ErrAlreadyRequested)
	})
}

func TestDecideFailure(t *testing.T) {
	t.Parallel()

	now := time.Now()
	userID := uuid.New()

	t.Run("no request from the user", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast(now.Add(time.Hour))
		assert.ErrorIs(t, decideFailure(b, userID), broadcast.ErrRequestNotFound)
	})

	t.Run("request already decided", func(t *testing.T) {
		t.Parallel()

		decidedAt := now.Add(-time.Minute)
		b := testBroadcast(now.Add(time.Hour), broadcast.JoinRequest{
			UserID:      userID,
			Status:      broadcast.JoinStatusAccepted,
			RequestedAt: now.Add(-time.Hour),
			DecidedAt:   &decidedAt,
		})
		assert.ErrorIs(t, decideFailure(b, userID), broadcast.ErrAlreadyDecided)
	})
}
