package logger

import (
	"log/slog"
	"os"
)

type options struct {
	handler slog.Handler
	attrs   []slog.Attr
}

// Option configures the logger built by New.
type Option func(*options)

// WithDevelopment configures human-readable text output at debug level,
// tagged with the application name.
func WithDevelopment(appName string) Option {
	return func(o *options) {
		o.handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
		if appName != "" {
			o.attrs = append(o.attrs, slog.String("app", appName))
		}
	}
}

// WithProduction configures JSON output at info level, tagged with the
// application name.
func WithProduction(appName string) Option {
	return func(o *options) {
		o.handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		if appName != "" {
			o.attrs = append(o.attrs, slog.String("app", appName))
		}
	}
}

// WithHandler overrides the handler entirely, for tests and custom sinks.
func WithHandler(h slog.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.handler = h
		}
	}
}

// New builds a slog.Logger. Without options it behaves like WithProduction
// with no application tag.
func New(opts ...Option) *slog.Logger {
	o := &options{
		handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
	for _, opt := range opts {
		opt(o)
	}

	handler := o.handler
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}
	return slog.New(handler)
}
