// Package ui implements the interactive reading tracker using bubbletea's Elm architecture.
//
// The TUI mirrors the reading tracker's navigation:
//  1. [MenuView] : Pick a destination from the Reading Tracker menu
//  2. [SessionsView] : Stats card plus the paginated session browser
//  3. [LeaderboardView] : Every reader ordered by total pages
//  4. [AddSessionView] : Log a reading session (minutes, pages, notes, date)
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Page reads run inside [tea.Cmd] functions and come back as messages; the [pager.Controller] applies them so only the
// latest requested page is ever shown.
//
// Keyboard navigation uses n/p and the arrow keys for pages, 1-9 to jump, r to reload, esc to go back and q to quit,
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
