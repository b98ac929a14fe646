package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter  key.Binding
	back   key.Binding
	next   key.Binding
	prev   key.Binding
	goTo   key.Binding
	reload key.Binding
	field  key.Binding
	submit key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		prev:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "previous page")),
		goTo:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "go to page")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		field:  key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "next field")),
		submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.goTo, k.reload},
		{k.enter, k.field, k.submit},
		{k.back, k.quit},
	}
}
