package sweeper

import "time"

// Config holds the configuration for the expiry sweeper.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	// Schedule is a cron expression or descriptor ("@every 1m", "@hourly").
	Schedule string `env:"SWEEPER_SCHEDULE" envDefault:"@every 1m"`
	// RunTimeout bounds a single sweep pass.
	RunTimeout time.Duration `env:"SWEEPER_RUN_TIMEOUT" envDefault:"30s"`
	// ShutdownTimeout bounds how long Stop waits for an in-flight sweep.
	ShutdownTimeout time.Duration `env:"SWEEPER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		Schedule:        "@every 1m",
		RunTimeout:      30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}
