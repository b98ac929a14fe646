package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = menuItem{}
)

// menuItem is one destination of the Reading Tracker menu.
type menuItem struct {
	view  ViewState
	title string
	desc  string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

var menuItems = []list.Item{
	menuItem{view: SessionsView, title: "My Stats", desc: "Your totals and reading sessions"},
	menuItem{view: LeaderboardView, title: "Leaderboard", desc: "Readers ranked by pages read"},
	menuItem{view: AddSessionView, title: "Add Session", desc: "Log minutes and pages"},
}

func newMenu(width, height int) list.Model {
	menu := list.New(menuItems, list.NewDefaultDelegate(), width, height)
	menu.Title = "Reading Tracker"
	menu.SetFilteringEnabled(false)
	menu.SetShowStatusBar(false)
	menu.SetShowHelp(false)
	menu.KeyMap.Quit.SetEnabled(false)
	return menu
}
