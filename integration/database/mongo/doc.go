// Package mongo provides MongoDB client initialization and the MongoDB
// implementations of the broadcast and notification storage contracts.
//
// New wraps the official MongoDB Go driver with application-level retry
// logic tuned for Atlas deployments, where cold starts of several seconds
// and brief network interruptions are routine. The connection is verified
// with a ping before it is returned.
//
// Basic usage:
//
//	var cfg mongo.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "broadcastkit")
//	if err != nil {
//		return err
//	}
//
//	store := mongo.NewBroadcastRepository(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//
//	eng, err := broadcast.NewEngine(store)
//
// # Storage model
//
// A broadcast is a single document with its join requests embedded, so the
// storage contract's conditional-update discipline maps directly onto
// filtered UpdateOne calls: the active-status gate, the deadline gate, and
// the one-request-per-user gate all live in the filter and are decided
// atomically by the server. The notification queue claims messages through
// FindOneAndUpdate, granting the lock lease in the same round trip.
//
// UUIDs are stored as canonical strings so documents stay readable in the
// shell and portable across driver versions.
//
// # Configuration
//
// Configuration is handled through environment variables via the Config
// struct, with defaults optimized for MongoDB Atlas:
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// # Health Checking
//
// Healthcheck returns a ping-based probe function for readiness endpoints.
// Connection failures are classified through ErrFailedToConnectToMongo and
// ErrHealthcheckFailed and can be checked with errors.Is.
package mongo
