// Package logger provides structured logging attribute helpers built on Go's
// standard slog package, covering the identifiers and metadata logged across
// the broadcast engine, notification pipeline, and expiry sweeper.
//
// All helpers follow the empty-Attr pattern: a nil error, nil UUID, or empty
// string produces an empty slog.Attr, which slog drops silently. This allows
// unconditional calls without nil checks at the log site:
//
//	log.Info("join request stored",
//		logger.Component("broadcast"),
//		logger.BroadcastID(b.ID),
//		logger.UserID(callerID),
//		logger.Error(err), // empty Attr when err is nil
//	)
//
// The package deliberately does not construct loggers; components accept any
// *slog.Logger and default to a discard handler when none is provided.
package logger
