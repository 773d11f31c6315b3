package broadcast

import "time"

// Config holds the engine configuration.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	// ListingTTL bounds the staleness of the cached active-broadcasts listing.
	ListingTTL time.Duration `env:"BROADCAST_LISTING_TTL" envDefault:"30s"`

	// AllowRedecide permits the creator to overwrite an already-decided join
	// request. Enabled by default to preserve the original overwrite
	// behavior; disable to reject re-decisions with ErrAlreadyDecided.
	AllowRedecide bool `env:"BROADCAST_ALLOW_REDECIDE" envDefault:"true"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		ListingTTL:    30 * time.Second,
		AllowRedecide: true,
	}
}
