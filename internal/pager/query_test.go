package pager

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

// memoryStore serves range reads from an in-memory, newest-first slice.
type memoryStore struct {
	sessions []models.ReadingSession
	err      error
	calls    []rangeCall
	// tamper rewrites a response before it is returned
	tamper func(rows []models.ReadingSession, total int) ([]models.ReadingSession, int)
}

type rangeCall struct {
	owner    string
	from, to int
}

func (s *memoryStore) RangeSessions(_ context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error) {
	s.calls = append(s.calls, rangeCall{owner: ownerID, from: from, to: to})
	if s.err != nil {
		return nil, 0, s.err
	}

	var owned []models.ReadingSession
	for _, session := range s.sessions {
		if session.UserID == ownerID {
			owned = append(owned, session)
		}
	}

	var rows []models.ReadingSession
	for i := from; i <= to && i < len(owned); i++ {
		rows = append(rows, owned[i])
	}

	total := len(owned)
	if s.tamper != nil {
		rows, total = s.tamper(rows, total)
	}
	return rows, total, nil
}

// newStore builds a store holding n sessions for owner, numbered n..1 newest first by pages.
func newStore(owner string, n int) *memoryStore {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	for i := n; i >= 1; i-- {
		store.sessions = append(store.sessions, models.ReadingSession{
			ID:        fmt.Sprintf("%s-%d", owner, i),
			UserID:    owner,
			Minutes:   i * 10,
			Pages:     i,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return store
}

func TestRangeFor(t *testing.T) {
	tests := []struct {
		page, pageSize int
		from, to       int
	}{
		{page: 1, pageSize: 15, from: 0, to: 14},
		{page: 2, pageSize: 15, from: 15, to: 29},
		{page: 3, pageSize: 10, from: 20, to: 29},
		{page: 7, pageSize: 1, from: 6, to: 6},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d size %d", tt.page, tt.pageSize), func(t *testing.T) {
			from, to := RangeFor(tt.page, tt.pageSize)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}

	t.Run("range always spans one page", func(t *testing.T) {
		for pageSize := 1; pageSize <= 25; pageSize++ {
			for page := 1; page <= 40; page++ {
				from, to := RangeFor(page, pageSize)
				require.GreaterOrEqual(t, from, 0)
				require.GreaterOrEqual(t, to, 0)
				require.Equal(t, pageSize, to-from+1)
			}
		}
	})
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{total: 0, pageSize: 15, want: 0},
		{total: 1, pageSize: 15, want: 1},
		{total: 15, pageSize: 15, want: 1},
		{total: 16, pageSize: 15, want: 2},
		{total: 23, pageSize: 15, want: 2},
		{total: 30, pageSize: 15, want: 2},
		{total: 31, pageSize: 15, want: 3},
		{total: -4, pageSize: 15, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.pageSize), "total %d", tt.total)
	}
}

func TestQueryPage(t *testing.T) {
	ctx := context.Background()

	t.Run("first page", func(t *testing.T) {
		store := newStore("alice", 23)
		page, err := NewQuery(store, 15).Page(ctx, "alice", 1)
		require.NoError(t, err)

		assert.Len(t, page.Records, 15)
		assert.Equal(t, 23, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, 0, page.From)
		assert.Equal(t, 14, page.To)
		assert.Equal(t, 23, page.Records[0].Pages, "newest session first")
		assert.Equal(t, []rangeCall{{owner: "alice", from: 0, to: 14}}, store.calls)
	})

	t.Run("last partial page", func(t *testing.T) {
		store := newStore("alice", 23)
		page, err := NewQuery(store, 15).Page(ctx, "alice", 2)
		require.NoError(t, err)

		assert.Len(t, page.Records, 8)
		assert.Equal(t, 15, page.From)
		assert.Equal(t, 29, page.To)
	})

	t.Run("exact multiple has no trailing page", func(t *testing.T) {
		store := newStore("alice", 30)
		query := NewQuery(store, 15)

		page, err := query.Page(ctx, "alice", 2)
		require.NoError(t, err)
		assert.Len(t, page.Records, 15)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("no sessions", func(t *testing.T) {
		page, err := NewQuery(newStore("alice", 0), 15).Page(ctx, "alice", 1)
		require.NoError(t, err)

		assert.NotNil(t, page.Records)
		assert.Empty(t, page.Records)
		assert.Equal(t, 0, page.Total)
		assert.Equal(t, 0, page.TotalPages)
	})

	t.Run("only the requested owner", func(t *testing.T) {
		store := newStore("alice", 5)
		store.sessions = append(store.sessions, newStore("bob", 5).sessions...)

		page, err := NewQuery(store, 15).Page(ctx, "bob", 1)
		require.NoError(t, err)
		require.Len(t, page.Records, 5)
		for _, record := range page.Records {
			assert.Equal(t, "bob", record.UserID)
		}
	})

	t.Run("default page size", func(t *testing.T) {
		assert.Equal(t, DefaultPageSize, NewQuery(newStore("alice", 0), 0).PageSize())
		assert.Equal(t, DefaultPageSize, NewQuery(newStore("alice", 0), -3).PageSize())
	})
}

func TestQueryPageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid arguments issue no read", func(t *testing.T) {
		store := newStore("alice", 3)
		query := NewQuery(store, 15)

		_, err := query.Page(ctx, "", 1)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = query.Page(ctx, "alice", 0)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = query.Page(ctx, "alice", MaxPage(15)+1)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = query.Page(ctx, "alice", math.MaxInt)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		assert.Empty(t, store.calls)
	})

	t.Run("last representable page", func(t *testing.T) {
		store := newStore("alice", 3)
		last := MaxPage(15)

		page, err := NewQuery(store, 15).Page(ctx, "alice", last)
		require.NoError(t, err)
		assert.Empty(t, page.Records)
		assert.GreaterOrEqual(t, page.From, 0)
		assert.GreaterOrEqual(t, page.To, page.From)
	})

	t.Run("store failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		store := &memoryStore{err: cause}

		page, err := NewQuery(store, 15).Page(ctx, "alice", 1)
		require.Error(t, err)
		assert.Nil(t, page)
		assert.ErrorIs(t, err, shared.ErrQueryFailed)
		assert.ErrorIs(t, err, cause)

		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Contains(t, qe.Message, "connection refused")
	})

	malformed := []struct {
		name   string
		tamper func([]models.ReadingSession, int) ([]models.ReadingSession, int)
	}{
		{
			name: "negative total",
			tamper: func(rows []models.ReadingSession, _ int) ([]models.ReadingSession, int) {
				return rows, -1
			},
		},
		{
			name: "more rows than the page size",
			tamper: func(rows []models.ReadingSession, total int) ([]models.ReadingSession, int) {
				return append(rows, rows[0]), total
			},
		},
		{
			name: "more rows than the total",
			tamper: func(rows []models.ReadingSession, _ int) ([]models.ReadingSession, int) {
				return rows, 1
			},
		},
		{
			name: "row of another owner",
			tamper: func(rows []models.ReadingSession, total int) ([]models.ReadingSession, int) {
				rows[0].UserID = "mallory"
				return rows, total
			},
		},
	}

	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore("alice", 20)
			store.tamper = tt.tamper

			page, err := NewQuery(store, 15).Page(ctx, "alice", 1)
			assert.Nil(t, page)
			assert.ErrorIs(t, err, shared.ErrQueryFailed)
			assert.ErrorIs(t, err, shared.ErrMalformedResponse)
		})
	}
}

func TestQueryRun(t *testing.T) {
	ctx := context.Background()
	store := newStore("alice", 4)
	query := NewQuery(store, 15)

	fetch := Fetch{Seq: 7, OwnerID: "alice", Page: 1}
	result := query.Run(ctx, fetch)
	require.NoError(t, result.Err)
	assert.Equal(t, fetch, result.Fetch)
	assert.Len(t, result.Records, 4)
	assert.Equal(t, 4, result.Total)

	store.err = errors.New("timeout")
	result = query.Run(ctx, fetch)
	assert.ErrorIs(t, result.Err, shared.ErrQueryFailed)
	assert.Nil(t, result.Records)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "could not load", ErrorMessage(&QueryError{Message: "could not load"}))
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
	assert.Equal(t, "could not load", ErrorMessage(fmt.Errorf("wrapped: %w", &QueryError{Message: "could not load"})))
}
