package cache

import "errors"

var (
	// ErrCacheMiss is returned when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrEmptyKey is returned when an empty key is used.
	ErrEmptyKey = errors.New("cache key cannot be empty")
)
