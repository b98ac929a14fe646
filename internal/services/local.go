package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/repositories"
	"github.com/desertthunder/readlog/internal/shared"
)

var (
	_ Backend       = (*LocalBackend)(nil)
	_ SessionLister = (*LocalBackend)(nil)
	_ Identity      = (*LocalIdentity)(nil)
)

// LocalBackend serves sessions and aggregates from the embedded SQLite database.
type LocalBackend struct {
	sessions *repositories.SessionRepository
	stats    *repositories.StatsRepository
}

// NewLocalBackend creates a [LocalBackend] over a migrated database.
func NewLocalBackend(db *sql.DB) *LocalBackend {
	return &LocalBackend{
		sessions: repositories.NewSessionRepository(db),
		stats:    repositories.NewStatsRepository(db),
	}
}

func (b *LocalBackend) Name() string {
	return shared.BackendLocal
}

func (b *LocalBackend) RangeSessions(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error) {
	if ownerID == "" {
		return nil, 0, fmt.Errorf("%w: owner identifier is required", shared.ErrInvalidArgument)
	}
	return b.sessions.Range(ctx, ownerID, from, to)
}

// ListSessions reads every session of the owner in a single query.
func (b *LocalBackend) ListSessions(ctx context.Context, ownerID string) ([]models.ReadingSession, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner identifier is required", shared.ErrInvalidArgument)
	}
	return b.sessions.ListAll(ctx, ownerID)
}

func (b *LocalBackend) InsertSession(ctx context.Context, session *models.ReadingSession) error {
	return b.sessions.Create(ctx, session)
}

func (b *LocalBackend) ReaderStats(ctx context.Context, ownerID string) (*models.ReaderStats, error) {
	return b.stats.ForUser(ctx, ownerID)
}

func (b *LocalBackend) Leaderboard(ctx context.Context) ([]models.ReaderStats, error) {
	return b.stats.Leaderboard(ctx)
}

// LocalIdentity resolves the reader configured for local mode, creating the account on first use.
type LocalIdentity struct {
	users *repositories.UserRepository
	email string
	name  string

	mu     sync.Mutex
	cached *models.Identity
}

// NewLocalIdentity creates a [LocalIdentity] for the reader with the given email.
func NewLocalIdentity(db *sql.DB, email, name string) *LocalIdentity {
	return &LocalIdentity{users: repositories.NewUserRepository(db), email: email, name: name}
}

func (i *LocalIdentity) CurrentUser(ctx context.Context) (*models.Identity, error) {
	if i.email == "" {
		return nil, fmt.Errorf("%w: local.email is not configured", shared.ErrNotAuthenticated)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cached != nil {
		identity := *i.cached
		return &identity, nil
	}

	user, err := i.users.GetByEmail(i.email)
	if errors.Is(err, shared.ErrNotFound) {
		user = models.NewUser(0, i.email, i.name)
		err = i.users.Create(user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local reader: %w", err)
	}

	identity := user.Identity()
	i.cached = &identity
	return &identity, nil
}
