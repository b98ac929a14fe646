package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/readlog/internal/models"
)

// Backend owns persistence and aggregation of reading sessions.
type Backend interface {
	// RangeSessions reads the owner's sessions at zero-based inclusive positions from..to, newest first,
	// and reports the owner's total session count.
	RangeSessions(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error)

	// InsertSession stores a new session and fills in its ID and creation time.
	InsertSession(ctx context.Context, session *models.ReadingSession) error

	// ReaderStats reads one reader's aggregate row; [shared.ErrNotFound] when the reader has no sessions.
	ReaderStats(ctx context.Context, ownerID string) (*models.ReaderStats, error)

	// Leaderboard reads every aggregate row ordered by total pages, highest first.
	Leaderboard(ctx context.Context) ([]models.ReaderStats, error)

	// Name returns the name of the backend (e.g., "local", "remote")
	Name() string
}

// Identity resolves the signed-in reader.
type Identity interface {
	// CurrentUser returns the signed-in reader or [shared.ErrNotAuthenticated].
	CurrentUser(ctx context.Context) (*models.Identity, error)
}

// Authenticator is implemented by identities that sign in with credentials.
type Authenticator interface {
	Identity
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Logout(ctx context.Context) error
}

// SessionLister is implemented by backends that can read all of an owner's sessions in one call.
type SessionLister interface {
	ListSessions(ctx context.Context, ownerID string) ([]models.ReadingSession, error)
}

// AllSessions reads every session of the owner, newest first.
//
// Backends implementing [SessionLister] are read in one call; others are walked with range reads in batches.
func AllSessions(ctx context.Context, b Backend, ownerID string, batch int) ([]models.ReadingSession, error) {
	if lister, ok := b.(SessionLister); ok {
		all, err := lister.ListSessions(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to read sessions: %w", err)
		}
		return all, nil
	}

	if batch <= 0 {
		batch = 100
	}

	var all []models.ReadingSession
	for from := 0; ; from += batch {
		rows, total, err := b.RangeSessions(ctx, ownerID, from, from+batch-1)
		if err != nil {
			return nil, fmt.Errorf("failed to read sessions %d-%d: %w", from, from+batch-1, err)
		}
		all = append(all, rows...)

		if len(rows) == 0 || len(all) >= total {
			return all, nil
		}
	}
}
