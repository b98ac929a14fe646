// Package tasks runs the reading log's long-running operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Importer.Import] : Bulk insert of parsed sessions
//     - Fans sessions out to a worker pool (default 4, max 10 workers)
//     - Every insert waits on a shared rate limiter (default 5 per second)
//     - Collects per-session failures without stopping the import
//
//  2. [BuildExport] : Gather a reader's stats and sessions
//     - Reads the aggregate row and walks the session range reads concurrently
//
//  3. [WriteExport] : Write an export as CSV, Markdown, plain text or YAML via the formatter package
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
