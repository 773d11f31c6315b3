// Package postmark implements the EmailSender interface on Postmark's
// transactional email API, the production delivery channel for join-request
// notifications.
//
// Usage:
//
//	var cfg postmark.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	sender, err := postmark.New(cfg)
//	if err != nil {
//		return err
//	}
//
//	dispatcher, err := notify.NewEmailDispatcher(sender, directory)
//
// Configuration is environment-driven:
//
//	POSTMARK_SERVER_TOKEN   (required)
//	POSTMARK_ACCOUNT_TOKEN  (required)
//	SENDER_EMAIL            (required)
//	SUPPORT_EMAIL           (required)
//
// Open and HTML link tracking are enabled on every message, and the Tag
// field of SendEmailParams maps onto Postmark's message tag so delivery of
// each notification kind can be monitored separately in the Postmark
// dashboard. Provider failures, including Postmark-level error codes in a
// 200 response, are wrapped in email.ErrFailedToSendEmail.
package postmark
