package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/broadcastkit/core/cache"
)

// Cache adapts a Redis client to the byte-oriented cache contract used by
// the broadcast listing path. It never masks Redis failures as misses; that
// classification belongs to the caller, which treats any error as one.
type Cache struct {
	client *redis.Client
}

// NewCache creates a cache backed by the given Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the value stored under key, or cache.ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, cache.ErrEmptyKey
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache key %q: %w", key, err)
	}
	return val, nil
}

// Set stores the value under key for the given TTL. A non-positive TTL
// stores the value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return cache.ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %q: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return cache.ErrEmptyKey
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key %q: %w", key, err)
	}
	return nil
}
