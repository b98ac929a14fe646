package pager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// load issues f against query and applies the result, failing the test if it is not applied.
func load(t *testing.T, c *Controller, q *Query, f Fetch) {
	t.Helper()
	require.True(t, c.Apply(q.Run(context.Background(), f)), "result of fetch %+v was not applied", f)
}

func TestControllerInitialState(t *testing.T) {
	c := NewController(15)
	state := c.State()

	assert.Equal(t, Idle, state.Status)
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, 15, state.PageSize)
	assert.False(t, state.TotalKnown)
	assert.Empty(t, state.Records)
	assert.False(t, state.HasNext())
	assert.False(t, state.HasPrevious())
	assert.Equal(t, DefaultPageSize, NewController(0).State().PageSize)
}

func TestControllerWithoutOwner(t *testing.T) {
	c := NewController(15)

	for name, navigate := range map[string]func() (Fetch, bool){
		"SetOwner": func() (Fetch, bool) { return c.SetOwner("") },
		"Next":     c.Next,
		"Previous": c.Previous,
		"GoTo":     func() (Fetch, bool) { return c.GoTo(1) },
		"Reload":   c.Reload,
	} {
		_, ok := navigate()
		assert.False(t, ok, "%s issued a fetch without an owner", name)
	}
	assert.Equal(t, Idle, c.State().Status)
}

func TestControllerScenarios(t *testing.T) {
	t.Run("owner without sessions", func(t *testing.T) {
		q := NewQuery(newStore("alice", 0), 15)
		c := NewController(15)

		f, ok := c.SetOwner("alice")
		require.True(t, ok)
		assert.Equal(t, Loading, c.State().Status)
		load(t, c, q, f)

		state := c.State()
		assert.Equal(t, Success, state.Status)
		assert.Empty(t, state.Records)
		assert.Equal(t, 0, state.TotalPages)
		assert.Equal(t, 1, state.Page)
		assert.True(t, state.Empty())
		assert.False(t, state.HasNext())
	})

	t.Run("first page of 23 sessions", func(t *testing.T) {
		store := newStore("alice", 23)
		q := NewQuery(store, 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)

		state := c.State()
		assert.Equal(t, Success, state.Status)
		assert.Len(t, state.Records, 15)
		assert.Equal(t, 23, state.Total)
		assert.Equal(t, 2, state.TotalPages)
		assert.True(t, state.HasNext())
		assert.False(t, state.Empty())
		assert.Equal(t, rangeCall{owner: "alice", from: 0, to: 14}, store.calls[0])
	})

	t.Run("next to the last page", func(t *testing.T) {
		store := newStore("alice", 23)
		q := NewQuery(store, 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)

		f, ok := c.Next()
		require.True(t, ok)
		assert.Equal(t, 2, f.Page)
		assert.Equal(t, Loading, c.State().Status)
		load(t, c, q, f)

		state := c.State()
		assert.Equal(t, 2, state.Page)
		assert.Len(t, state.Records, 8)
		assert.Equal(t, 2, state.TotalPages)
		assert.False(t, state.HasNext())
		assert.True(t, state.HasPrevious())
		assert.Equal(t, rangeCall{owner: "alice", from: 15, to: 29}, store.calls[1])
	})

	t.Run("network error", func(t *testing.T) {
		store := newStore("alice", 23)
		q := NewQuery(store, 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)
		f, _ = c.Next()
		load(t, c, q, f)

		store.err = errors.New("network unreachable")
		f, ok := c.Previous()
		require.True(t, ok)
		load(t, c, q, f)

		state := c.State()
		assert.Equal(t, Error, state.Status)
		assert.Contains(t, state.ErrorMessage, "network unreachable")
		assert.Empty(t, state.Records)
		assert.Equal(t, 0, state.TotalPages)
		assert.Equal(t, 1, state.Page)
		assert.False(t, state.Empty())
	})

	t.Run("next on the last page", func(t *testing.T) {
		store := newStore("alice", 23)
		q := NewQuery(store, 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)
		f, _ = c.Next()
		load(t, c, q, f)

		before := c.State()
		calls := len(store.calls)

		_, ok := c.Next()
		assert.False(t, ok)
		assert.Equal(t, before, c.State())
		assert.Len(t, store.calls, calls, "no fetch issued")
	})
}

func TestControllerNavigationBounds(t *testing.T) {
	q := NewQuery(newStore("alice", 45), 15)
	c := NewController(15)

	f, _ := c.SetOwner("alice")
	load(t, c, q, f)
	require.Equal(t, 3, c.State().TotalPages)

	t.Run("previous on the first page", func(t *testing.T) {
		before := c.State()
		_, ok := c.Previous()
		assert.False(t, ok)
		assert.Equal(t, before, c.State())
	})

	t.Run("go to out of range", func(t *testing.T) {
		before := c.State()
		for _, n := range []int{-1, 0, 4, 100} {
			_, ok := c.GoTo(n)
			assert.False(t, ok, "GoTo(%d)", n)
		}
		assert.Equal(t, before, c.State())
	})

	t.Run("go to in range", func(t *testing.T) {
		f, ok := c.GoTo(3)
		require.True(t, ok)
		assert.Equal(t, 3, f.Page)
		load(t, c, q, f)
		assert.Equal(t, 3, c.State().Page)
		assert.Len(t, c.State().Records, 15)
	})

	t.Run("exact multiple has no trailing page", func(t *testing.T) {
		_, ok := c.Next()
		assert.False(t, ok)
	})
}

func TestControllerOwnerChange(t *testing.T) {
	store := newStore("alice", 40)
	store.sessions = append(store.sessions, newStore("bob", 3).sessions...)
	q := NewQuery(store, 15)
	c := NewController(15)

	f, _ := c.SetOwner("alice")
	load(t, c, q, f)
	f, _ = c.GoTo(3)
	load(t, c, q, f)
	require.Equal(t, 3, c.State().Page)

	t.Run("same owner is a no-op", func(t *testing.T) {
		_, ok := c.SetOwner("alice")
		assert.False(t, ok)
		assert.Equal(t, Success, c.State().Status)
	})

	t.Run("new owner resets before the fetch resolves", func(t *testing.T) {
		f, ok := c.SetOwner("bob")
		require.True(t, ok)
		assert.Equal(t, Fetch{Seq: f.Seq, OwnerID: "bob", Page: 1}, f)

		state := c.State()
		assert.Equal(t, Loading, state.Status)
		assert.Equal(t, 1, state.Page)
		assert.Empty(t, state.Records)
		assert.False(t, state.TotalKnown)

		load(t, c, q, f)
		assert.Len(t, c.State().Records, 3)
		for _, record := range c.State().Records {
			assert.Equal(t, "bob", record.UserID)
		}
	})

	t.Run("clearing the owner returns to idle", func(t *testing.T) {
		_, ok := c.SetOwner("")
		assert.False(t, ok)

		state := c.State()
		assert.Equal(t, Idle, state.Status)
		assert.Empty(t, state.Records)
		assert.Equal(t, 1, state.Page)
	})
}

func TestControllerStaleness(t *testing.T) {
	ctx := context.Background()

	t.Run("last request wins", func(t *testing.T) {
		q := NewQuery(newStore("alice", 45), 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)

		a, ok := c.Next()
		require.True(t, ok)
		b, ok := c.Next()
		require.True(t, ok, "navigation while loading is permitted")
		assert.Equal(t, 3, b.Page)

		resultA := q.Run(ctx, a)
		resultB := q.Run(ctx, b)

		assert.True(t, c.Apply(resultB))
		assert.False(t, c.Apply(resultA), "stale result applied")

		state := c.State()
		assert.Equal(t, 3, state.Page)
		assert.Equal(t, Success, state.Status)
		assert.Equal(t, 15, state.Records[0].Pages, "page 3 holds sessions 15..1")
	})

	t.Run("stale result arriving first is dropped", func(t *testing.T) {
		q := NewQuery(newStore("alice", 45), 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		load(t, c, q, f)

		a, _ := c.Next()
		b, _ := c.Previous()

		assert.False(t, c.Apply(q.Run(ctx, a)))
		assert.Equal(t, Loading, c.State().Status)
		assert.True(t, c.Apply(q.Run(ctx, b)))
		assert.Equal(t, 1, c.State().Page)
	})

	t.Run("result for a previous owner is dropped", func(t *testing.T) {
		store := newStore("alice", 20)
		store.sessions = append(store.sessions, newStore("bob", 2).sessions...)
		q := NewQuery(store, 15)
		c := NewController(15)

		forAlice, _ := c.SetOwner("alice")
		forBob, _ := c.SetOwner("bob")

		assert.False(t, c.Apply(q.Run(ctx, forAlice)))
		assert.Empty(t, c.State().Records)
		assert.True(t, c.Apply(q.Run(ctx, forBob)))
		assert.Equal(t, 2, c.State().Total)
	})

	t.Run("result after clearing the owner is dropped", func(t *testing.T) {
		q := NewQuery(newStore("alice", 5), 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		c.SetOwner("")

		assert.False(t, c.Apply(q.Run(ctx, f)))
		assert.Equal(t, Idle, c.State().Status)
	})

	t.Run("duplicate delivery is dropped", func(t *testing.T) {
		q := NewQuery(newStore("alice", 5), 15)
		c := NewController(15)

		f, _ := c.SetOwner("alice")
		result := q.Run(ctx, f)
		assert.True(t, c.Apply(result))
		assert.False(t, c.Apply(result))
	})
}

func TestControllerRecovery(t *testing.T) {
	store := newStore("alice", 23)
	store.err = errors.New("503 service unavailable")
	q := NewQuery(store, 15)
	c := NewController(15)

	f, _ := c.SetOwner("alice")
	load(t, c, q, f)
	require.Equal(t, Error, c.State().Status)

	_, ok := c.Next()
	assert.False(t, ok, "total pages is unknown after an error")

	store.err = nil
	f, ok = c.Reload()
	require.True(t, ok)
	assert.Empty(t, c.State().ErrorMessage)
	load(t, c, q, f)

	state := c.State()
	assert.Equal(t, Success, state.Status)
	assert.Equal(t, 2, state.TotalPages)
}

func TestControllerKeepsRecordsDuringPageChange(t *testing.T) {
	q := NewQuery(newStore("alice", 23), 15)
	c := NewController(15)

	f, _ := c.SetOwner("alice")
	load(t, c, q, f)

	f, _ = c.Next()
	assert.True(t, c.Pending(f))

	state := c.State()
	assert.Equal(t, Loading, state.Status)
	assert.Len(t, state.Records, 15)
	assert.Equal(t, 2, state.TotalPages)
}

func TestStateSnapshotIsolation(t *testing.T) {
	q := NewQuery(newStore("alice", 3), 15)
	c := NewController(15)

	f, _ := c.SetOwner("alice")
	load(t, c, q, f)

	state := c.State()
	state.Records[0].Pages = 999
	assert.NotEqual(t, 999, c.State().Records[0].Pages)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", Status(42).String())
}
