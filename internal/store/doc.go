// Package store provides the SQLite-backed override journal.
//
// The journal is an append-only audit trail of module overrides. It is never
// consulted when loading modules; the gateway's registry is the only source
// of truth for what a module exports.
//
// # Ordering
//
//   - Each record gets a seq INTEGER from SQLite on insert
//   - All reads use: ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Record IDs are UUIDv7, so they also sort by creation time
//
// # Idempotency
//
//   - id is UNIQUE; writing the same record twice is a no-op
//
// # Database Configuration
//
//   - WAL mode: history reads while an override is written
//   - synchronous=FULL: an acknowledged override is on disk
//   - busy_timeout=5000: wait on lock contention
//   - Single open connection: SQLite has one writer
//
// # Migrations
//
// PRAGMA user_version holds the schema version. Open applies pending
// migrations one transaction each and refuses journals newer than
// SchemaVersion with ErrSchemaTooNew.
package store
