package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/shared"
)

const (
	loadingSessions = "Loading sessions... 🚀"
	noSessions      = "No reading sessions found. 😭"
	noStats         = "No stats available"
	// page numbers are listed only up to this many pages
	maxPageLinks = 10
)

// RenderBrowser renders the session browser for a controller snapshot.
//
// Exactly one of the loading, error, empty or list states is shown; the page indicator follows the list.
func RenderBrowser(state pager.State) string {
	switch state.Status {
	case pager.Idle:
		return styles.help.Render("Waiting for sign-in...")
	case pager.Loading:
		return loadingSessions
	case pager.Error:
		return styles.err.Render("Error: " + state.ErrorMessage)
	}

	if state.Empty() {
		return noSessions
	}

	var b strings.Builder
	for _, session := range state.Records {
		fmt.Fprintf(&b, "%s  %5s pages  %5s min", shared.FormatDate(session.SessionDate),
			shared.FormatNumber(session.Pages), shared.FormatNumber(session.Minutes))
		if session.Notes != "" {
			fmt.Fprintf(&b, "  %s", session.Notes)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + renderPageIndicator(state))
	return b.String()
}

func renderPageIndicator(state pager.State) string {
	indicator := fmt.Sprintf("Page %d of %d", state.Page, state.TotalPages)
	if state.TotalPages > maxPageLinks {
		return indicator
	}

	links := make([]string, state.TotalPages)
	for n := 1; n <= state.TotalPages; n++ {
		if n == state.Page {
			links[n-1] = styles.current.Render(fmt.Sprintf("[%d]", n))
		} else {
			links[n-1] = fmt.Sprint(n)
		}
	}
	return indicator + "  " + strings.Join(links, " ")
}

// renderStatsCard renders a reader's totals, averages and last session date.
func renderStatsCard(stats *models.ReaderStats, loading bool, errMsg string) string {
	switch {
	case loading:
		return styles.card.Render("Loading stats...")
	case errMsg != "":
		return styles.card.Render(styles.err.Render("Error loading stats"))
	case stats == nil:
		return styles.card.Render(noStats)
	}

	body := fmt.Sprintf(
		"%s\n%s pages  %s  %s sessions\nAverage per session: %s pages, %s min\nLast session: %s (%s)",
		styles.title.UnsetMarginBottom().Render("Your Reading Stats"),
		shared.FormatNumber(stats.TotalPages),
		shared.FormatMinutes(stats.TotalMinutes),
		shared.FormatNumber(stats.TotalSessions),
		shared.RoundAverage(stats.AvgPagesPerSession),
		shared.RoundAverage(stats.AvgMinutesPerSession),
		shared.FormatDate(stats.LastSessionDate),
		shared.FormatRelative(stats.LastSessionDate),
	)
	return styles.card.Render(body)
}

// renderLeaderboard renders every reader ordered as the backend returned them.
func renderLeaderboard(rows []models.ReaderStats, loading bool, errMsg string) string {
	switch {
	case loading:
		return "Loading stats..."
	case errMsg != "":
		return styles.err.Render("Error loading stats")
	case len(rows) == 0:
		return noStats
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-30s %10s %10s %9s  %s\n", "#", "Reader", "Pages", "Minutes", "Sessions", "Last session")
	for i, row := range rows {
		fmt.Fprintf(&b, "%-4d %-30s %10s %10s %9s  %s\n",
			i+1,
			truncate(row.Email, 30),
			shared.FormatNumber(row.TotalPages),
			shared.FormatNumber(row.TotalMinutes),
			shared.FormatNumber(row.TotalSessions),
			shared.FormatDate(row.LastSessionDate),
		)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
