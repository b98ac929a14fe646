// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

// MockBackend is an in-memory test double for [services.Backend].
//
// Sessions are kept newest first. Err, when set, fails every call.
type MockBackend struct {
	mu       sync.Mutex
	Sessions []models.ReadingSession
	Stats    map[string]*models.ReaderStats
	Err      error
	// InsertErr fails inserts whose notes match the key.
	InsertErr map[string]error
	Calls     []string
	Delay     time.Duration
}

// NewMockBackend creates an empty [MockBackend].
func NewMockBackend() *MockBackend {
	return &MockBackend{Stats: map[string]*models.ReaderStats{}, InsertErr: map[string]error{}}
}

// Seed adds n sessions for owner, numbered by pages from n (newest) down to 1.
func (m *MockBackend) Seed(owner string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := n; i >= 1; i-- {
		m.Sessions = append(m.Sessions, models.ReadingSession{
			ID:          fmt.Sprintf("%s-%d", owner, i),
			UserID:      owner,
			Minutes:     i * 5,
			Pages:       i,
			SessionDate: base.AddDate(0, 0, i),
			CreatedAt:   base.AddDate(0, 0, i),
		})
	}
}

func (m *MockBackend) record(call string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	delay, err := m.Delay, m.Err
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (m *MockBackend) RangeSessions(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error) {
	if err := m.record(fmt.Sprintf("range %s %d-%d", ownerID, from, to)); err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var owned []models.ReadingSession
	for _, session := range m.Sessions {
		if session.UserID == ownerID {
			owned = append(owned, session)
		}
	}

	rows := []models.ReadingSession{}
	for i := from; i <= to && i < len(owned); i++ {
		rows = append(rows, owned[i])
	}
	return rows, len(owned), nil
}

func (m *MockBackend) InsertSession(ctx context.Context, session *models.ReadingSession) error {
	if err := m.record("insert " + session.UserID); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.InsertErr[session.Notes]; err != nil {
		return err
	}

	session.ID = fmt.Sprintf("mock-%d", len(m.Sessions)+1)
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	m.Sessions = append([]models.ReadingSession{*session}, m.Sessions...)
	return nil
}

func (m *MockBackend) ReaderStats(ctx context.Context, ownerID string) (*models.ReaderStats, error) {
	if err := m.record("stats " + ownerID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.Stats[ownerID]
	if !ok {
		return nil, fmt.Errorf("%w: no stats for user %s", shared.ErrNotFound, ownerID)
	}
	copied := *stats
	return &copied, nil
}

func (m *MockBackend) Leaderboard(ctx context.Context) ([]models.ReaderStats, error) {
	if err := m.record("leaderboard"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	board := []models.ReaderStats{}
	for _, stats := range m.Stats {
		board = append(board, *stats)
	}
	slices.SortFunc(board, func(a, b models.ReaderStats) int { return b.TotalPages - a.TotalPages })
	return board, nil
}

func (m *MockBackend) Name() string { return "mock" }

// CallCount returns the number of calls whose description starts with prefix.
func (m *MockBackend) CallCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, call := range m.Calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

// MockIdentity is a test double for [services.Identity]. A nil User reports [shared.ErrNotAuthenticated].
type MockIdentity struct {
	User *models.Identity
	Err  error
}

func (m *MockIdentity) CurrentUser(ctx context.Context) (*models.Identity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.User == nil {
		return nil, shared.ErrNotAuthenticated
	}
	user := *m.User
	return &user, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
