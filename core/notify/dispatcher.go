package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"

	"github.com/dmitrymomot/broadcastkit/core/broadcast"
	"github.com/dmitrymomot/broadcastkit/core/email"
)

// Dispatcher delivers a join-request notification to the broadcast creator.
// Implementations must tolerate duplicate deliveries: the queue is
// at-least-once and the same event may arrive more than once.
type Dispatcher interface {
	DispatchJoinRequest(ctx context.Context, b *broadcast.Broadcast, requesterID uuid.UUID) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, b *broadcast.Broadcast, requesterID uuid.UUID) error

func (f DispatcherFunc) DispatchJoinRequest(ctx context.Context, b *broadcast.Broadcast, requesterID uuid.UUID) error {
	return f(ctx, b, requesterID)
}

// UserDirectory resolves user identities to notification addresses. The user
// store is owned by the surrounding application; the pipeline only needs
// this one lookup.
type UserDirectory interface {
	EmailByID(ctx context.Context, userID uuid.UUID) (string, error)
}

// EmailDispatcher notifies the broadcast creator by email.
type EmailDispatcher struct {
	sender    email.EmailSender
	directory UserDirectory
}

// NewEmailDispatcher creates a dispatcher sending through the given email
// sender, resolving creator addresses via the directory.
func NewEmailDispatcher(sender email.EmailSender, directory UserDirectory) (*EmailDispatcher, error) {
	if sender == nil {
		return nil, ErrSenderNil
	}
	if directory == nil {
		return nil, ErrDirectoryNil
	}
	return &EmailDispatcher{sender: sender, directory: directory}, nil
}

// DispatchJoinRequest emails the broadcast creator about the pending join
// request.
func (d *EmailDispatcher) DispatchJoinRequest(ctx context.Context, b *broadcast.Broadcast, requesterID uuid.UUID) error {
	addr, err := d.directory.EmailByID(ctx, b.CreatorID)
	if err != nil {
		return fmt.Errorf("failed to resolve creator %s: %w", b.CreatorID, err)
	}

	params := email.SendEmailParams{
		SendTo:  addr,
		Subject: fmt.Sprintf("New join request for %q", b.Title),
		BodyHTML: fmt.Sprintf(
			"<p>Someone wants to join your broadcast <strong>%s</strong>.</p>"+
				"<p>Review the request and accept or reject it before the broadcast expires at %s.</p>",
			html.EscapeString(b.Title), b.ExpiresAt.Format("Jan 2, 2006 15:04 MST")),
		Tag: "join-request",
	}
	if err := d.sender.SendEmail(ctx, params); err != nil {
		return fmt.Errorf("failed to notify creator of broadcast %s: %w", b.ID, err)
	}
	return nil
}
