package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

const sessionColumns = "id, user_id, minutes, pages, notes, session_date, created_at"

// SessionRepository persists [models.ReadingSession] rows.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session, assigning its ID and, when unset, its creation time.
func (r *SessionRepository) Create(ctx context.Context, session *models.ReadingSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	session.ID = shared.GenerateID()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.SessionDate = session.SessionDate.UTC()

	query := `
		INSERT INTO reading_sessions (id, user_id, minutes, pages, notes, session_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Minutes, session.Pages, session.Notes,
		session.SessionDate, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.ReadingSession, error) {
	query := "SELECT " + sessionColumns + " FROM reading_sessions WHERE id = ?"

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	return session, err
}

// Delete removes a session by ID. Sessions are not soft-deleted.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reading_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectAffected(result, "session", id)
}

// Range returns the owner's sessions at zero-based inclusive positions from..to, newest first,
// together with the owner's total session count.
//
// Both reads run in one transaction so the rows and the count describe the same snapshot.
func (r *SessionRepository) Range(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error) {
	if from < 0 || to < from {
		return nil, 0, fmt.Errorf("%w: invalid range %d-%d", shared.ErrInvalidArgument, from, to)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM reading_sessions WHERE user_id = ?", ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := "SELECT " + sessionColumns + ` FROM reading_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := tx.QueryContext(ctx, query, ownerID, to-from+1, from)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit range transaction: %w", err)
	}

	return sessions, total, nil
}

// ListAll returns every session of the owner, newest first.
func (r *SessionRepository) ListAll(ctx context.Context, ownerID string) ([]models.ReadingSession, error) {
	query := "SELECT " + sessionColumns + " FROM reading_sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]models.ReadingSession, error) {
	sessions := []models.ReadingSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (*models.ReadingSession, error) {
	var (
		session models.ReadingSession
		notes   sql.NullString
	)

	err := row.Scan(&session.ID, &session.UserID, &session.Minutes, &session.Pages, &notes, &session.SessionDate, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	session.Notes = notes.String
	session.SessionDate = session.SessionDate.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return &session, nil
}
