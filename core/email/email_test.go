package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcastkit/core/email"
)

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "creator@example.com",
		Subject:  `New join request for "Morning run"`,
		BodyHTML: "<p>Someone wants to join your broadcast.</p>",
		Tag:      "join-request",
	}
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validParams().Validate())
	})

	t.Run("tag is optional", func(t *testing.T) {
		t.Parallel()
		params := validParams()
		params.Tag = ""
		require.NoError(t, params.Validate())
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()
		params := validParams()
		params.SendTo = "  "
		require.ErrorIs(t, params.Validate(), email.ErrInvalidParams)
	})

	t.Run("malformed recipient", func(t *testing.T) {
		t.Parallel()
		params := validParams()
		params.SendTo = "not-an-address"
		require.ErrorIs(t, params.Validate(), email.ErrInvalidParams)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()
		params := validParams()
		params.Subject = ""
		require.ErrorIs(t, params.Validate(), email.ErrInvalidParams)
	})

	t.Run("missing body", func(t *testing.T) {
		t.Parallel()
		params := validParams()
		params.BodyHTML = ""
		require.ErrorIs(t, params.Validate(), email.ErrInvalidParams)
	})
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes html and metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)
		params := validParams()

		require.NoError(t, sender.SendEmail(ctx, params))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		var htmlPath, jsonPath string
		for _, entry := range entries {
			switch filepath.Ext(entry.Name()) {
			case ".html":
				htmlPath = filepath.Join(dir, entry.Name())
			case ".json":
				jsonPath = filepath.Join(dir, entry.Name())
			}
			assert.Contains(t, entry.Name(), "join-request")
		}
		require.NotEmpty(t, htmlPath)
		require.NotEmpty(t, jsonPath)

		body, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		assert.Equal(t, params.BodyHTML, string(body))

		raw, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		var meta map[string]string
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, params.SendTo, meta["send_to"])
		assert.Equal(t, params.Subject, meta["subject"])
		assert.Equal(t, params.Tag, meta["tag"])
	})

	t.Run("falls back to subject for filename", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)
		params := validParams()
		params.Tag = ""

		require.NoError(t, sender.SendEmail(ctx, params))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, entry := range entries {
			assert.Contains(t, strings.ToLower(entry.Name()), "new_join_request")
		}
	})

	t.Run("invalid params rejected before writing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)
		params := validParams()
		params.SendTo = ""

		require.ErrorIs(t, sender.SendEmail(ctx, params), email.ErrInvalidParams)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		sender := email.NewDevSender(t.TempDir())
		require.ErrorIs(t, sender.SendEmail(cancelled, validParams()), context.Canceled)
	})
}
