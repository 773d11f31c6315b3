// Package smtp implements the EmailSender interface over plain SMTP, for
// deployments that bring their own mail relay instead of a transactional
// provider.
//
// The client supports three connection modes selected by SMTP_TLS_MODE:
// "starttls" (default) upgrades a plaintext connection, "tls" dials an
// implicit-TLS port, and "plain" skips encryption entirely and should be
// reserved for local relays.
//
// Usage:
//
//	var cfg smtp.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	sender, err := smtp.New(cfg)
//	if err != nil {
//		return err
//	}
//
//	dispatcher, err := notify.NewEmailDispatcher(sender, directory)
//
// Configuration is environment-driven:
//
//	SMTP_HOST      (required)
//	SMTP_PORT      (default: 587)
//	SMTP_USERNAME  (required)
//	SMTP_PASSWORD  (required)
//	SMTP_TLS_MODE  (default: starttls)
//	SENDER_EMAIL   (required)
//	SUPPORT_EMAIL  (required)
//
// Messages are sent as HTML with Reply-To pointed at SUPPORT_EMAIL so
// recipient responses reach a monitored inbox. Failures are wrapped in
// email.ErrFailedToSendEmail and can be checked with errors.Is.
package smtp
