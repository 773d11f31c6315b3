// Package redis provides Redis client initialization and the Redis-backed
// listing cache.
//
// Connect validates the connection URL, retries transient failures with a
// linear backoff, and verifies connectivity with a ping before returning:
//
//	var cfg redis.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// NewCache adapts the client to the cache contract consumed by the
// broadcast engine and the expiry sweeper:
//
//	eng, err := broadcast.NewEngine(store,
//		broadcast.WithCache(redis.NewCache(client)),
//	)
//
// Configuration is environment-driven:
//
//	REDIS_URL              (required, redis:// or rediss://)
//	REDIS_RETRY_ATTEMPTS   (default: 3)
//	REDIS_RETRY_INTERVAL   (default: 5s)
//	REDIS_CONNECT_TIMEOUT  (default: 30s)
//
// Healthcheck returns a ping-based probe function for readiness endpoints.
// Connection errors are classified through the package sentinel errors and
// can be checked with errors.Is.
package redis
