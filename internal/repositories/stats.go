package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

const statsColumns = `user_id, email, total_pages, total_minutes, total_sessions,
	avg_pages_per_session, avg_minutes_per_session, last_session_date`

// StatsRepository reads the leaderboard_view aggregate.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new [StatsRepository] with the given database connection
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// ForUser returns the aggregate row of one reader.
//
// Readers without sessions have no row and yield [shared.ErrNotFound].
func (r *StatsRepository) ForUser(ctx context.Context, userID string) (*models.ReaderStats, error) {
	query := "SELECT " + statsColumns + " FROM leaderboard_view WHERE user_id = ?"

	stats, err := scanStats(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no stats for user %s", shared.ErrNotFound, userID)
	}
	return stats, err
}

// Leaderboard returns every aggregate row ordered by total pages, highest first.
func (r *StatsRepository) Leaderboard(ctx context.Context) ([]models.ReaderStats, error) {
	query := "SELECT " + statsColumns + " FROM leaderboard_view ORDER BY total_pages DESC, total_minutes DESC, email ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	board := []models.ReaderStats{}
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		board = append(board, *stats)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return board, nil
}

func scanStats(row rowScanner) (*models.ReaderStats, error) {
	var (
		stats       models.ReaderStats
		avgPages    sql.NullFloat64
		avgMinutes  sql.NullFloat64
		lastSession sql.NullString
	)

	err := row.Scan(
		&stats.UserID, &stats.Email, &stats.TotalPages, &stats.TotalMinutes, &stats.TotalSessions,
		&avgPages, &avgMinutes, &lastSession,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stats: %w", err)
	}

	stats.AvgPagesPerSession = avgPages.Float64
	stats.AvgMinutesPerSession = avgMinutes.Float64

	if lastSession.Valid {
		t, err := parseTimestamp(lastSession.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last session date: %w", err)
		}
		stats.LastSessionDate = t
	}

	return &stats, nil
}
