// Package email provides the delivery abstraction used by the notification
// pipeline to reach broadcast creators.
//
// The package centers on the EmailSender interface:
//
//	type EmailSender interface {
//		SendEmail(ctx context.Context, params SendEmailParams) error
//	}
//
// Production implementations live in integration/email/postmark and
// integration/email/smtp. For local development, NewDevSender writes each
// message to disk instead of sending it:
//
//	sender := email.NewDevSender("./dev_emails")
//
//	err := sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "creator@example.com",
//		Subject:  `New join request for "Morning run"`,
//		BodyHTML: "<p>Someone wants to join your broadcast.</p>",
//		Tag:      "join-request",
//	})
//
// SendEmailParams.Validate is called by every sender before dispatch, so
// malformed parameters fail fast with ErrInvalidParams regardless of the
// provider.
package email
