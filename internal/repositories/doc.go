// Package repositories implements SQLite persistence for the local backend.
//
// All repositories take a shared [*sql.DB] opened with shared.NewDatabase and migrated with shared.RunMigrations.
//
// Key Implementations:
//   - [UserRepository] : Reader accounts with email-based lookups and soft deletes
//   - [SessionRepository] : Reading sessions with owner-filtered range reads and exact counts
//   - [StatsRepository] : Read-only access to the leaderboard_view aggregate view
//
// Sequence numbers provide stable, human-readable ordering for users (e.g., reader #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Timestamps are written in UTC so lexical ordering of the stored text matches chronological ordering.
package repositories
