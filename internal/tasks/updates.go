package tasks

import (
	"fmt"

	"github.com/desertthunder/readlog/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ImportSessions Phase = iota
	FetchSessions
	FetchStats
	WriteFiles
)

func (p Phase) String() string {
	switch p {
	case ImportSessions:
		return "import_sessions"
	case FetchSessions:
		return "fetch_sessions"
	case FetchStats:
		return "fetch_stats"
	case WriteFiles:
		return "write_files"
	default:
		return ""
	}
}

func importStartedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSessions,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Importing %d sessions with %d workers...", total, workers),
	}
}

func importCompletedUpdate(step, total int, session *models.ReadingSession) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSessions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %d pages", step, total, session.SessionDate.Format("2006-01-02"), session.Pages),
		Data:    session,
	}
}

func importFailedUpdate(step, total int, index int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSessions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ row %d: %v", step, total, index+1, err),
	}
}

func fetchSessionsUpdate(reader models.Identity) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSessions,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching sessions for %s...", reader.Email),
	}
}

func fetchStatsUpdate(reader models.Identity) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStats,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching stats for %s...", reader.Email),
	}
}

func writeFilesUpdate(format string, sessions int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d sessions as %s...", sessions, format),
	}
}
