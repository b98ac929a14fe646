// package tasks implements long-running reading-log operations: bulk CSV imports and multi-format exports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"

	"github.com/desertthunder/readlog/internal/models"
)

// Inserter is the part of a backend an import writes through.
type Inserter interface {
	InsertSession(ctx context.Context, session *models.ReadingSession) error
}

// SessionImportResult is the outcome of inserting one session.
type SessionImportResult struct {
	Index   int                    // Position of the session in the input (zero-based)
	Session *models.ReadingSession // Session as stored (ID set on success)
	Success bool
	Error   error
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Total    int                   // Sessions submitted
	Imported int                   // Sessions stored
	Failed   int                   // Sessions rejected by the backend
	Skipped  int                   // Sessions never attempted because the import was canceled
	Results  []SessionImportResult // Per-session results in input order
}

// ExportResult lists the files written by an export.
type ExportResult struct {
	Format   string
	Files    []string
	Sessions int
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
