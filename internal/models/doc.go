// Package models defines domain entities and persistence interfaces for the readlog reading tracker.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs shared with the remote backend's wire format
//   - [ReadingSession] : One logged reading session (minutes, pages, notes, date)
//   - [ReaderStats] : One row of the per-reader aggregate view (totals, averages, last session)
//   - [Identity] : The authenticated reader returned by the identity service
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Local reader accounts with email lookups and soft deletes
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
