package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgIdentityResolved MsgKind = iota
	MsgPageFetched
	MsgStatsFetched
	MsgLeaderboardFetched
	MsgSessionSaved
)

type identityResult struct {
	identity *models.Identity
	err      error
}

type statsResult struct {
	seq   uint64
	owner string
	stats *models.ReaderStats
	err   error
}

type leaderboardResult struct {
	seq  uint64
	rows []models.ReaderStats
	err  error
}

type saveResult struct {
	session *models.ReadingSession
	err     error
}

// identityResolvedMsg is the constructor for [MsgIdentityResolved]
func identityResolvedMsg(identity *models.Identity, err error) Msg {
	return Msg{kind: MsgIdentityResolved, data: identityResult{identity, err}}
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(result pager.Result) Msg {
	return Msg{kind: MsgPageFetched, data: result}
}

// statsFetchedMsg is the constructor for [MsgStatsFetched]
func statsFetchedMsg(seq uint64, owner string, stats *models.ReaderStats, err error) Msg {
	return Msg{kind: MsgStatsFetched, data: statsResult{seq, owner, stats, err}}
}

// leaderboardFetchedMsg is the constructor for [MsgLeaderboardFetched]
func leaderboardFetchedMsg(seq uint64, rows []models.ReaderStats, err error) Msg {
	return Msg{kind: MsgLeaderboardFetched, data: leaderboardResult{seq, rows, err}}
}

// sessionSavedMsg is the constructor for [MsgSessionSaved]
func sessionSavedMsg(session *models.ReadingSession, err error) Msg {
	return Msg{kind: MsgSessionSaved, data: saveResult{session, err}}
}
