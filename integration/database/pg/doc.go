// Package pg provides PostgreSQL connection management with migrations and
// the PostgreSQL implementations of the broadcast and notification storage
// contracts.
//
// Connect wraps the pgx driver with retry logic and pool tuning; Migrate
// applies the schema in migrations/ using goose through the pgx stdlib
// adapter. Both are meant to run once at startup:
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil && !errors.Is(err, pg.ErrMigrationsDirNotFound) {
//		return err
//	}
//
//	store := pg.NewBroadcastRepository(pool)
//	queueStore := pg.NewNotificationRepository(pool)
//
// # Storage model
//
// Broadcasts and join requests live in separate tables joined by broadcast
// id. The storage contract's gates map onto single conditional statements:
// updates and join-request inserts carry the active-status and deadline
// checks in their WHERE clause, and the (broadcast_id, user_id) primary key
// resolves concurrent duplicate requests on the server. The notification
// queue claims work with FOR UPDATE SKIP LOCKED, so polling workers never
// block each other.
//
// # Transactions
//
// WithTx attaches a pgx.Tx to a context and TxFromContext retrieves it; all
// repository methods check the context first, so a caller can span a domain
// write and a queue insert with one transaction:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx) // Safe even after commit
//
//	ctx = pg.WithTx(ctx, tx)
//	if err := store.CreateBroadcast(ctx, b); err != nil {
//		return err
//	}
//	if err := queueStore.Enqueue(ctx, msg); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
//
// # Configuration
//
// All configuration is environment-driven through the Config struct:
//
//	PG_CONN_URL            (required)
//	PG_MAX_OPEN_CONNS      (default: 10)
//	PG_MAX_IDLE_CONNS      (default: 5)
//	PG_HEALTHCHECK_PERIOD  (default: 1m)
//	PG_MAX_CONN_IDLE_TIME  (default: 10m)
//	PG_MAX_CONN_LIFETIME   (default: 30m)
//	PG_RETRY_ATTEMPTS      (default: 3)
//	PG_RETRY_INTERVAL      (default: 5s)
//	PG_MIGRATIONS_PATH     (default: integration/database/pg/migrations)
//	PG_MIGRATIONS_TABLE    (default: schema_migrations)
//
// # Error handling
//
// Healthcheck returns a ping-based probe for readiness endpoints. Sentinel
// errors classify connection and migration failures, and the IsNotFoundError,
// IsDuplicateKeyError, IsForeignKeyViolationError, and IsTxClosedError
// helpers classify common statement failures for retry logic.
package pg
