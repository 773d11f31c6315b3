package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcastkit/core/notify"
)

type failingQueueStorage struct {
	notify.Storage
	err error
}

func (f *failingQueueStorage) Enqueue(ctx context.Context, msg *notify.Message) error {
	return f.err
}

func TestNewQueue(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		q, err := notify.NewQueue(notify.NewMemoryStorage())
		require.NoError(t, err)
		assert.NotNil(t, q)
	})

	t.Run("nil storage", func(t *testing.T) {
		t.Parallel()

		q, err := notify.NewQueue(nil)
		require.ErrorIs(t, err, notify.ErrStorageNil)
		assert.Nil(t, q)
	})
}

func TestQueue_EnqueueJoinRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores pending message", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		q, err := notify.NewQueue(storage)
		require.NoError(t, err)

		broadcastID := uuid.New()
		requesterID := uuid.New()
		require.NoError(t, q.EnqueueJoinRequest(ctx, broadcastID, requesterID))

		msgs := storage.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, broadcastID, msgs[0].BroadcastID)
		assert.Equal(t, requesterID, msgs[0].RequesterID)
		assert.Equal(t, notify.MessageStatusPending, msgs[0].Status)
		assert.Equal(t, notify.DefaultMaxAttempts, msgs[0].MaxAttempts)
		assert.Equal(t, int8(0), msgs[0].Attempts)
		assert.WithinDuration(t, time.Now(), msgs[0].EnqueuedAt, time.Second)
	})

	t.Run("custom attempt budget", func(t *testing.T) {
		t.Parallel()

		storage := notify.NewMemoryStorage()
		q, err := notify.NewQueue(storage, notify.WithMaxAttempts(5))
		require.NoError(t, err)

		require.NoError(t, q.EnqueueJoinRequest(ctx, uuid.New(), uuid.New()))

		msgs := storage.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, int8(5), msgs[0].MaxAttempts)
	})

	t.Run("from config", func(t *testing.T) {
		t.Parallel()

		cfg := notify.DefaultConfig()
		cfg.MaxAttempts = 7

		storage := notify.NewMemoryStorage()
		q, err := notify.NewQueueFromConfig(cfg, storage)
		require.NoError(t, err)

		require.NoError(t, q.EnqueueJoinRequest(ctx, uuid.New(), uuid.New()))

		msgs := storage.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, int8(7), msgs[0].MaxAttempts)
	})

	t.Run("missing broadcast id", func(t *testing.T) {
		t.Parallel()

		q, err := notify.NewQueue(notify.NewMemoryStorage())
		require.NoError(t, err)

		err = q.EnqueueJoinRequest(ctx, uuid.Nil, uuid.New())
		require.ErrorIs(t, err, notify.ErrInvalidEvent)
	})

	t.Run("missing requester id", func(t *testing.T) {
		t.Parallel()

		q, err := notify.NewQueue(notify.NewMemoryStorage())
		require.NoError(t, err)

		err = q.EnqueueJoinRequest(ctx, uuid.New(), uuid.Nil)
		require.ErrorIs(t, err, notify.ErrInvalidEvent)
	})

	t.Run("storage failure is surfaced", func(t *testing.T) {
		t.Parallel()

		storageErr := errors.New("disk full")
		q, err := notify.NewQueue(&failingQueueStorage{err: storageErr})
		require.NoError(t, err)

		err = q.EnqueueJoinRequest(ctx, uuid.New(), uuid.New())
		require.ErrorIs(t, err, storageErr)
	})
}
