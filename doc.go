// Package broadcastkit provides the building blocks of a broadcast
// lifecycle service: time-bounded broadcasts, join-request coordination, a
// cached listing path, asynchronous creator notifications, and background
// expiry reconciliation.
//
// # Package Organization
//
// The module is organized into two layers:
//
//   - Core: storage-agnostic domain logic and background components
//   - Integrations: MongoDB, PostgreSQL, Redis, and email provider
//     implementations of the core contracts
//
// # Core Packages
//
//   - github.com/dmitrymomot/broadcastkit/core/broadcast - The engine:
//     broadcast creation, listing, search, partial updates, deletion, and
//     the join-request flow, with deadline-based expiry enforced on every
//     read and write.
//   - github.com/dmitrymomot/broadcastkit/core/cache - Byte-oriented cache
//     contract with an in-process implementation; backs the active-listing
//     read-through path.
//   - github.com/dmitrymomot/broadcastkit/core/notify - Durable
//     notification queue with a lock-lease polling worker, retries, and a
//     dead-letter store; delivers join-request events at least once.
//   - github.com/dmitrymomot/broadcastkit/core/sweeper - Cron-scheduled
//     reconciliation flipping due broadcasts to expired and invalidating
//     cached listings.
//   - github.com/dmitrymomot/broadcastkit/core/email - Email sending
//     contract with an on-disk development sender.
//   - github.com/dmitrymomot/broadcastkit/core/config - Type-safe cached
//     environment configuration loading.
//   - github.com/dmitrymomot/broadcastkit/core/logger - slog constructors
//     and typed attribute helpers shared across the module.
//
// # Integration Packages
//
//   - github.com/dmitrymomot/broadcastkit/integration/database/mongo -
//     MongoDB client setup plus the document-per-broadcast storage and
//     notification queue repositories.
//   - github.com/dmitrymomot/broadcastkit/integration/database/pg -
//     PostgreSQL pool setup, goose migrations, and the relational
//     repositories (FOR UPDATE SKIP LOCKED queue claims).
//   - github.com/dmitrymomot/broadcastkit/integration/database/redis -
//     Redis client setup and the shared listing cache.
//   - github.com/dmitrymomot/broadcastkit/integration/email/postmark -
//     Postmark-backed transactional email delivery.
//   - github.com/dmitrymomot/broadcastkit/integration/email/smtp -
//     SMTP-based delivery for self-hosted relays.
//
// # Binaries
//
// cmd/broadcastd runs the background half of the system - the notification
// worker and the expiry sweeper - against the same storage the embedding
// application uses.
//
// For detailed documentation on any package, use the go doc command:
//
//	go doc github.com/dmitrymomot/broadcastkit/core/broadcast
package broadcastkit
