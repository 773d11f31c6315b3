package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcastkit/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("op", slog.String("name", "create"), slog.Int("n", 2))
	require.Equal(t, "op", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "name", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns empty attr", func(t *testing.T) {
		t.Parallel()

		attr := logger.Error(nil)
		assert.Equal(t, slog.Attr{}, attr)
	})

	t.Run("non-nil error", func(t *testing.T) {
		t.Parallel()

		err := errors.New("boom")
		attr := logger.Error(err)
		require.Equal(t, "error", attr.Key)
		assert.Equal(t, "boom", attr.Value.String())
	})
}

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("all nil returns empty attr", func(t *testing.T) {
		t.Parallel()

		attr := logger.Errors(nil, nil)
		assert.Equal(t, slog.Attr{}, attr)
	})

	t.Run("skips nil errors and preserves order", func(t *testing.T) {
		t.Parallel()

		attr := logger.Errors(errors.New("first"), nil, errors.New("third"))
		require.Equal(t, "errors", attr.Key)
		g := attr.Value.Group()
		require.Len(t, g, 2)
		assert.Equal(t, "0", g[0].Key)
		assert.Equal(t, "2", g[1].Key)
	})
}

func TestDomainIdentifiers(t *testing.T) {
	t.Parallel()

	t.Run("nil uuid returns empty attr", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.Attr{}, logger.BroadcastID(uuid.Nil))
		assert.Equal(t, slog.Attr{}, logger.UserID(uuid.Nil))
		assert.Equal(t, slog.Attr{}, logger.MessageID(uuid.Nil))
		assert.Equal(t, slog.Attr{}, logger.WorkerID(uuid.Nil))
	})

	t.Run("non-nil uuid renders as string", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		attr := logger.BroadcastID(id)
		require.Equal(t, "broadcast_id", attr.Key)
		assert.Equal(t, id.String(), attr.Value.String())

		attr = logger.UserID(id)
		require.Equal(t, "user_id", attr.Key)
		assert.Equal(t, id.String(), attr.Value.String())
	})
}

func TestTiming(t *testing.T) {
	t.Parallel()

	attr := logger.Duration(2 * time.Second)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())

	attr = logger.Elapsed(time.Now().Add(-time.Minute))
	require.Equal(t, "elapsed", attr.Key)
	assert.GreaterOrEqual(t, attr.Value.Duration(), time.Minute)
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "component", logger.Component("sweeper").Key)
	assert.Equal(t, "event", logger.Event("expired").Key)
	assert.Equal(t, 3, int(logger.Count("expired", 3).Value.Int64()))
	assert.Equal(t, slog.Attr{}, logger.CacheKey(""))
	assert.Equal(t, "cache_key", logger.CacheKey("broadcasts:active").Key)
	assert.Equal(t, slog.Attr{}, logger.Key("k", nil))
	assert.Equal(t, slog.Attr{}, logger.ID("k", nil))
}
