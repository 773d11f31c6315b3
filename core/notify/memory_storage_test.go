package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcastkit/core/notify"
)

func newTestMessage(enqueuedAt time.Time) *notify.Message {
	return &notify.Message{
		ID:          uuid.New(),
		BroadcastID: uuid.New(),
		RequesterID: uuid.New(),
		Status:      notify.MessageStatusPending,
		MaxAttempts: notify.DefaultMaxAttempts,
		EnqueuedAt:  enqueuedAt,
	}
}

func TestMemoryStorage_Claim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("claims oldest pending first", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		now := time.Now()
		older := newTestMessage(now.Add(-time.Minute))
		newer := newTestMessage(now)
		require.NoError(t, storage.Enqueue(ctx, newer))
		require.NoError(t, storage.Enqueue(ctx, older))

		workerID := uuid.New()
		msg, err := storage.Claim(ctx, workerID, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, older.ID, msg.ID)
		assert.Equal(t, notify.MessageStatusProcessing, msg.Status)
		require.NotNil(t, msg.LockedBy)
		assert.Equal(t, workerID, *msg.LockedBy)
		require.NotNil(t, msg.LockedUntil)
		assert.True(t, msg.LockedUntil.After(now))
	})

	t.Run("empty queue", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		msg, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.ErrorIs(t, err, notify.ErrNoMessage)
		assert.Nil(t, msg)
	})

	t.Run("claimed message is invisible until lease expiry", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		require.NoError(t, storage.Enqueue(ctx, newTestMessage(time.Now())))

		_, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.NoError(t, err)

		_, err = storage.Claim(ctx, uuid.New(), time.Minute)
		require.ErrorIs(t, err, notify.ErrNoMessage)
	})

	t.Run("expired lease is claimable again", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		original := newTestMessage(time.Now())
		require.NoError(t, storage.Enqueue(ctx, original))

		_, err := storage.Claim(ctx, uuid.New(), time.Millisecond)
		require.NoError(t, err)

		secondWorker := uuid.New()
		require.Eventually(t, func() bool {
			msg, err := storage.Claim(ctx, secondWorker, time.Minute)
			return err == nil && msg.ID == original.ID && *msg.LockedBy == secondWorker
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("concurrent claims never double-deliver", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		require.NoError(t, storage.Enqueue(ctx, newTestMessage(time.Now())))

		const workers = 16
		var wg sync.WaitGroup
		wins := make(chan uuid.UUID, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if msg, err := storage.Claim(ctx, uuid.New(), time.Minute); err == nil {
					wins <- msg.ID
				}
			}()
		}
		wg.Wait()
		close(wins)

		count := 0
		for range wins {
			count++
		}
		assert.Equal(t, 1, count)
	})
}

func TestMemoryStorage_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("complete releases lock and stamps processed", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		require.NoError(t, storage.Enqueue(ctx, newTestMessage(time.Now())))
		claimed, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.NoError(t, err)

		require.NoError(t, storage.Complete(ctx, claimed.ID))

		stored, ok := storage.Message(claimed.ID)
		require.True(t, ok)
		assert.Equal(t, notify.MessageStatusCompleted, stored.Status)
		assert.NotNil(t, stored.ProcessedAt)
		assert.Nil(t, stored.LockedUntil)
		assert.Nil(t, stored.LockedBy)
	})

	t.Run("fail re-pends with incremented attempts", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		require.NoError(t, storage.Enqueue(ctx, newTestMessage(time.Now())))
		claimed, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.NoError(t, err)

		require.NoError(t, storage.Fail(ctx, claimed.ID, "smtp timeout"))

		stored, ok := storage.Message(claimed.ID)
		require.True(t, ok)
		assert.Equal(t, notify.MessageStatusPending, stored.Status)
		assert.Equal(t, int8(1), stored.Attempts)
		require.NotNil(t, stored.LastError)
		assert.Equal(t, "smtp timeout", *stored.LastError)
		assert.Nil(t, stored.LockedBy)

		// Re-pended means another worker can pick it up immediately.
		again, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.NoError(t, err)
		assert.Equal(t, claimed.ID, again.ID)
	})

	t.Run("move to dead letter removes from active queue", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		msg := newTestMessage(time.Now())
		require.NoError(t, storage.Enqueue(ctx, msg))
		claimed, err := storage.Claim(ctx, uuid.New(), time.Minute)
		require.NoError(t, err)
		require.NoError(t, storage.Fail(ctx, claimed.ID, "mailbox unavailable"))

		require.NoError(t, storage.MoveToDeadLetter(ctx, claimed.ID))

		_, ok := storage.Message(claimed.ID)
		assert.False(t, ok)

		letters := storage.DeadLetters()
		require.Len(t, letters, 1)
		assert.Equal(t, msg.ID, letters[0].MessageID)
		assert.Equal(t, msg.BroadcastID, letters[0].BroadcastID)
		assert.Equal(t, msg.RequesterID, letters[0].RequesterID)
		assert.Equal(t, "mailbox unavailable", letters[0].Error)
		assert.Equal(t, int8(1), letters[0].Attempts)
	})

	t.Run("unknown message", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		require.ErrorIs(t, storage.Complete(ctx, uuid.New()), notify.ErrMessageNotFound)
		require.ErrorIs(t, storage.Fail(ctx, uuid.New(), "boom"), notify.ErrMessageNotFound)
		require.ErrorIs(t, storage.MoveToDeadLetter(ctx, uuid.New()), notify.ErrMessageNotFound)
	})

	t.Run("duplicate enqueue rejected", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		msg := newTestMessage(time.Now())
		require.NoError(t, storage.Enqueue(ctx, msg))
		require.Error(t, storage.Enqueue(ctx, msg))
	})
}
