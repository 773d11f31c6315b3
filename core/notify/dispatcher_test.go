package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcastkit/core/email"
	"github.com/dmitrymomot/broadcastkit/core/notify"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (s *capturingSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, params)
	return nil
}

type staticDirectory map[uuid.UUID]string

func (d staticDirectory) EmailByID(ctx context.Context, userID uuid.UUID) (string, error) {
	addr, ok := d[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return addr, nil
}

func TestNewEmailDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		d, err := notify.NewEmailDispatcher(&capturingSender{}, staticDirectory{})
		require.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("nil sender", func(t *testing.T) {
		t.Parallel()

		_, err := notify.NewEmailDispatcher(nil, staticDirectory{})
		require.ErrorIs(t, err, notify.ErrSenderNil)
	})

	t.Run("nil directory", func(t *testing.T) {
		t.Parallel()

		_, err := notify.NewEmailDispatcher(&capturingSender{}, nil)
		require.ErrorIs(t, err, notify.ErrDirectoryNil)
	})
}

func TestEmailDispatcher_DispatchJoinRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("emails the creator", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast()
		sender := &capturingSender{}
		dispatcher, err := notify.NewEmailDispatcher(sender, staticDirectory{
			b.CreatorID: "creator@example.com",
		})
		require.NoError(t, err)

		require.NoError(t, dispatcher.DispatchJoinRequest(ctx, b, uuid.New()))

		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, "creator@example.com", msg.SendTo)
		assert.Contains(t, msg.Subject, b.Title)
		assert.Contains(t, msg.BodyHTML, b.Title)
		assert.Equal(t, "join-request", msg.Tag)
	})

	t.Run("markup in the title is escaped", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast()
		b.Title = `<script>alert("hi")</script>`
		sender := &capturingSender{}
		dispatcher, err := notify.NewEmailDispatcher(sender, staticDirectory{
			b.CreatorID: "creator@example.com",
		})
		require.NoError(t, err)

		require.NoError(t, dispatcher.DispatchJoinRequest(ctx, b, uuid.New()))

		require.Len(t, sender.sent, 1)
		assert.NotContains(t, sender.sent[0].BodyHTML, "<script>")
		assert.Contains(t, sender.sent[0].BodyHTML, "&lt;script&gt;")
	})

	t.Run("unresolvable creator", func(t *testing.T) {
		t.Parallel()

		sender := &capturingSender{}
		dispatcher, err := notify.NewEmailDispatcher(sender, staticDirectory{})
		require.NoError(t, err)

		err = dispatcher.DispatchJoinRequest(ctx, testBroadcast(), uuid.New())
		require.Error(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("sender failure is surfaced", func(t *testing.T) {
		t.Parallel()

		b := testBroadcast()
		sendErr := errors.New("provider down")
		dispatcher, err := notify.NewEmailDispatcher(&capturingSender{err: sendErr}, staticDirectory{
			b.CreatorID: "creator@example.com",
		})
		require.NoError(t, err)

		err = dispatcher.DispatchJoinRequest(ctx, b, uuid.New())
		require.ErrorIs(t, err, sendErr)
	})
}
