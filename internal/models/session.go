package models

import (
	"fmt"
	"time"
)

// ReadingSession is one logged reading session.
//
// JSON tags match the column names of the reading_sessions table on both backends.
type ReadingSession struct {
	ID          string    `json:"id,omitempty" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Minutes     int       `json:"minutes" yaml:"minutes"`
	Pages       int       `json:"pages" yaml:"pages"`
	Notes       string    `json:"notes" yaml:"notes,omitempty"`
	SessionDate time.Time `json:"session_date" yaml:"session_date"`
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"created_at"`
}

// NewReadingSession creates a session for owner dated sessionDate; ID and CreatedAt are assigned by the store.
func NewReadingSession(owner string, minutes, pages int, notes string, sessionDate time.Time) *ReadingSession {
	return &ReadingSession{
		UserID:      owner,
		Minutes:     minutes,
		Pages:       pages,
		Notes:       notes,
		SessionDate: sessionDate,
	}
}

// Validate checks the fields a store would reject.
func (s *ReadingSession) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("session owner is required")
	}
	if s.Minutes < 0 {
		return fmt.Errorf("minutes must be non-negative, got %d", s.Minutes)
	}
	if s.Pages < 0 {
		return fmt.Errorf("pages must be non-negative, got %d", s.Pages)
	}
	if s.SessionDate.IsZero() {
		return fmt.Errorf("session date is required")
	}
	return nil
}

// ReaderStats is one row of the per-reader aggregate view.
type ReaderStats struct {
	UserID               string    `json:"user_id" yaml:"user_id"`
	Email                string    `json:"email" yaml:"email"`
	TotalPages           int       `json:"total_pages" yaml:"total_pages"`
	TotalMinutes         int       `json:"total_minutes" yaml:"total_minutes"`
	TotalSessions        int       `json:"total_sessions" yaml:"total_sessions"`
	AvgPagesPerSession   float64   `json:"avg_pages_per_session" yaml:"avg_pages_per_session"`
	AvgMinutesPerSession float64   `json:"avg_minutes_per_session" yaml:"avg_minutes_per_session"`
	LastSessionDate      time.Time `json:"last_session_date" yaml:"last_session_date"`
}

// ReadingExport bundles a reader's stats and sessions for the export formats.
type ReadingExport struct {
	Reader   Identity         `json:"reader" yaml:"reader"`
	Stats    *ReaderStats     `json:"stats,omitempty" yaml:"stats,omitempty"`
	Sessions []ReadingSession `json:"sessions" yaml:"sessions"`
}
