package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// EmailSender abstracts the delivery provider so the notification pipeline
// can swap Postmark, SMTP, or the on-disk development sender without code
// changes.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams carries a single transactional email.
type SendEmailParams struct {
	// SendTo is the recipient address.
	SendTo string
	// Subject is the message subject line.
	Subject string
	// BodyHTML is the HTML body of the message.
	BodyHTML string
	// Tag is an optional provider-side classification label.
	Tag string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks that the parameters are complete enough to send.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !emailRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyHTML) == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}
