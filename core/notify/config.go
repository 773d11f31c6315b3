package notify

import "time"

// Config holds the configuration for the notification queue and worker.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	// Worker configuration
	PollInterval    time.Duration `env:"NOTIFY_POLL_INTERVAL" envDefault:"5s"`
	LockTimeout     time.Duration `env:"NOTIFY_LOCK_TIMEOUT" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"NOTIFY_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrent   int           `env:"NOTIFY_MAX_CONCURRENT" envDefault:"10"`

	// Queue configuration
	MaxAttempts int8 `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"3"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		LockTimeout:     time.Minute,
		ShutdownTimeout: 30 * time.Second,
		MaxConcurrent:   10,
		MaxAttempts:     DefaultMaxAttempts,
	}
}
