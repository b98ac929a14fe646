package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

var (
	_ Backend       = (*RemoteClient)(nil)
	_ Authenticator = (*RemoteClient)(nil)
)

const (
	sessionsTable   = "reading_sessions"
	leaderboardView = "leaderboard_view"

	// objectMediaType asks the REST API for a single object instead of an array.
	objectMediaType = "application/vnd.pgrst.object+json"
)

// RemoteClient talks to the hosted backend: a REST API over the reading tables and a token-based auth API.
//
// Every request waits on a shared [rate.Limiter]. Calls made on behalf of the reader carry the
// access token from a refreshing [oauth2.TokenSource] that persists rotated tokens to disk.
type RemoteClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	store      *TokenStore

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// RemoteOption customizes a [RemoteClient].
type RemoteOption func(*RemoteClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(c *RemoteClient) { c.httpClient = client }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) RemoteOption {
	return func(c *RemoteClient) { c.logger = logger }
}

// NewRemoteClient creates a client for the backend at cfg.URL and restores a saved session when one exists.
func NewRemoteClient(cfg shared.RemoteConfig, opts ...RemoteOption) (*RemoteClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: remote.url is required", shared.ErrMissingCredentials)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("%w: remote.anon_key is required", shared.ErrMissingCredentials)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	c := &RemoteClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log.New(io.Discard),
		store:      NewTokenStore(cfg.ResolvedTokenPath()),
	}

	for _, opt := range opts {
		opt(c)
	}

	token, err := c.store.Load()
	switch {
	case err == nil:
		c.tokens = c.newTokenSource(token)
	case errors.Is(err, shared.ErrNotAuthenticated):
	default:
		c.logger.Warn("ignoring unreadable saved session", "path", c.store.Path(), "error", err)
	}

	return c, nil
}

func (c *RemoteClient) Name() string {
	return shared.BackendRemote
}

// Authenticated reports whether a session is loaded; it does not validate the token.
func (c *RemoteClient) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens != nil
}

func (c *RemoteClient) accessToken() (string, error) {
	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()

	if tokens == nil {
		return "", shared.ErrNotAuthenticated
	}

	token, err := tokens.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	return token.AccessToken, nil
}

// Login signs in with email and password and saves the session.
func (c *RemoteClient) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	auth, err := c.grant(ctx, "password", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	token := auth.token()
	if err := c.store.Save(token); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.tokens = c.newTokenSource(token)
	c.mu.Unlock()

	c.logger.Info("signed in", "email", auth.User.Email)
	return auth.identity(), nil
}

// Logout revokes the session on the backend (best effort) and removes the saved token.
func (c *RemoteClient) Logout(ctx context.Context) error {
	if c.Authenticated() {
		if _, err := c.send(ctx, apiRequest{method: http.MethodPost, path: "/auth/v1/logout", user: true}); err != nil {
			c.logger.Warn("failed to revoke session", "error", err)
		}
	}

	c.mu.Lock()
	c.tokens = nil
	c.mu.Unlock()

	return c.store.Clear()
}

// CurrentUser returns the reader the saved session belongs to.
func (c *RemoteClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	_, err := c.sendJSON(ctx, apiRequest{method: http.MethodGet, path: "/auth/v1/user", user: true}, &user)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user response has no id", shared.ErrMalformedResponse)
	}
	return &models.Identity{UserID: user.ID, Email: user.Email}, nil
}

// RangeSessions issues one range read over the owner's sessions with an exact count.
func (c *RemoteClient) RangeSessions(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error) {
	if ownerID == "" {
		return nil, 0, fmt.Errorf("%w: owner identifier is required", shared.ErrInvalidArgument)
	}
	if from < 0 || to < from {
		return nil, 0, fmt.Errorf("%w: invalid range %d-%d", shared.ErrInvalidArgument, from, to)
	}

	header := http.Header{}
	header.Set("Range-Unit", "items")
	header.Set("Range", fmt.Sprintf("%d-%d", from, to))
	header.Set("Prefer", "count=exact")

	var rows []sessionRow
	resp, err := c.sendJSON(ctx, apiRequest{
		method: http.MethodGet,
		path:   "/rest/v1/" + sessionsTable,
		query: url.Values{
			"select":  {"*"},
			"user_id": {"eq." + ownerID},
			"order":   {"created_at.desc"},
		},
		header: header,
		user:   true,
		// a range past the last row is reported as unsatisfiable with the total still in Content-Range
		accept: []int{http.StatusRequestedRangeNotSatisfiable},
	}, &rows)
	if err != nil {
		return nil, 0, err
	}

	total, err := parseContentRange(resp.Headers.Get("Content-Range"))
	if err != nil {
		return nil, 0, err
	}

	sessions := make([]models.ReadingSession, 0, len(rows))
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return sessions, total, nil
	}
	for _, row := range rows {
		session, err := row.session()
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, session)
	}
	return sessions, total, nil
}

// InsertSession stores a session and copies the stored ID and creation time back.
func (c *RemoteClient) InsertSession(ctx context.Context, session *models.ReadingSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	header := http.Header{}
	header.Set("Prefer", "return=representation")

	var rows []sessionRow
	_, err := c.sendJSON(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/rest/v1/" + sessionsTable,
		header: header,
		body:   newInsertRow(session),
		user:   true,
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("%w: insert returned %d rows", shared.ErrMalformedResponse, len(rows))
	}

	stored, err := rows[0].session()
	if err != nil {
		return err
	}
	session.ID = stored.ID
	session.CreatedAt = stored.CreatedAt
	return nil
}

// ReaderStats reads one reader's row of the aggregate view.
func (c *RemoteClient) ReaderStats(ctx context.Context, ownerID string) (*models.ReaderStats, error) {
	header := http.Header{}
	header.Set("Accept", objectMediaType)

	var row statsRow
	_, err := c.sendJSON(ctx, apiRequest{
		method: http.MethodGet,
		path:   "/rest/v1/" + leaderboardView,
		query:  url.Values{"select": {"*"}, "user_id": {"eq." + ownerID}},
		header: header,
		user:   true,
	}, &row)
	if isStatus(err, http.StatusNotAcceptable) {
		return nil, fmt.Errorf("%w: no stats for user %s", shared.ErrNotFound, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return row.stats()
}

// Leaderboard reads the aggregate view ordered by total pages.
func (c *RemoteClient) Leaderboard(ctx context.Context) ([]models.ReaderStats, error) {
	var rows []statsRow
	_, err := c.sendJSON(ctx, apiRequest{
		method: http.MethodGet,
		path:   "/rest/v1/" + leaderboardView,
		query:  url.Values{"select": {"*"}, "order": {"total_pages.desc"}},
		user:   c.Authenticated(),
	}, &rows)
	if err != nil {
		return nil, err
	}

	board := make([]models.ReaderStats, 0, len(rows))
	for _, row := range rows {
		stats, err := row.stats()
		if err != nil {
			return nil, err
		}
		board = append(board, *stats)
	}
	return board, nil
}

// wireTimeLayouts are the timestamp shapes the REST API produces for timestamptz, timestamp and date columns.
var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	shared.DateLayout,
}

func parseWireTime(field, value string) (time.Time, error) {
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s %q is not a timestamp", shared.ErrMalformedResponse, field, value)
}

// sessionRow is a reading_sessions row as sent over the wire.
type sessionRow struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Minutes     *int    `json:"minutes"`
	Pages       *int    `json:"pages"`
	Notes       *string `json:"notes"`
	SessionDate string  `json:"session_date"`
	CreatedAt   string  `json:"created_at"`
}

func (r sessionRow) session() (models.ReadingSession, error) {
	if r.ID == "" || r.UserID == "" {
		return models.ReadingSession{}, fmt.Errorf("%w: session row without id or owner", shared.ErrMalformedResponse)
	}
	if r.Minutes == nil || r.Pages == nil {
		return models.ReadingSession{}, fmt.Errorf("%w: session %s without minutes or pages", shared.ErrMalformedResponse, r.ID)
	}

	session := models.ReadingSession{
		ID:      r.ID,
		UserID:  r.UserID,
		Minutes: *r.Minutes,
		Pages:   *r.Pages,
	}
	if r.Notes != nil {
		session.Notes = *r.Notes
	}

	var err error
	if session.SessionDate, err = parseWireTime("session_date", r.SessionDate); err != nil {
		return models.ReadingSession{}, err
	}
	if session.CreatedAt, err = parseWireTime("created_at", r.CreatedAt); err != nil {
		return models.ReadingSession{}, err
	}
	return session, nil
}

// insertRow is the body of an insert; the store assigns id and created_at.
type insertRow struct {
	UserID      string `json:"user_id"`
	Minutes     int    `json:"minutes"`
	Pages       int    `json:"pages"`
	Notes       string `json:"notes"`
	SessionDate string `json:"session_date"`
}

func newInsertRow(s *models.ReadingSession) insertRow {
	return insertRow{
		UserID:      s.UserID,
		Minutes:     s.Minutes,
		Pages:       s.Pages,
		Notes:       s.Notes,
		SessionDate: s.SessionDate.UTC().Format(shared.DateLayout),
	}
}

// statsRow is a leaderboard_view row; aggregates arrive as JSON numbers of any precision.
type statsRow struct {
	UserID               string   `json:"user_id"`
	Email                string   `json:"email"`
	TotalPages           *float64 `json:"total_pages"`
	TotalMinutes         *float64 `json:"total_minutes"`
	TotalSessions        *float64 `json:"total_sessions"`
	AvgPagesPerSession   *float64 `json:"avg_pages_per_session"`
	AvgMinutesPerSession *float64 `json:"avg_minutes_per_session"`
	LastSessionDate      *string  `json:"last_session_date"`
}

func (r statsRow) stats() (*models.ReaderStats, error) {
	if r.UserID == "" {
		return nil, fmt.Errorf("%w: stats row without user_id", shared.ErrMalformedResponse)
	}

	value := func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	}

	stats := &models.ReaderStats{
		UserID:               r.UserID,
		Email:                r.Email,
		TotalPages:           int(value(r.TotalPages)),
		TotalMinutes:         int(value(r.TotalMinutes)),
		TotalSessions:        int(value(r.TotalSessions)),
		AvgPagesPerSession:   value(r.AvgPagesPerSession),
		AvgMinutesPerSession: value(r.AvgMinutesPerSession),
	}

	if r.LastSessionDate != nil && *r.LastSessionDate != "" {
		t, err := parseWireTime("last_session_date", *r.LastSessionDate)
		if err != nil {
			return nil, err
		}
		stats.LastSessionDate = t
	}
	return stats, nil
}
