package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/services"
	"github.com/desertthunder/readlog/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	SessionsView
	LeaderboardView
	AddSessionView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	backend  services.Backend
	identity services.Identity
	query    *pager.Query
	browser  *pager.Controller
	logger   *log.Logger
	width    int
	height   int
	menu     list.Model

	user    *models.Identity
	authErr error

	// statsSeq and leaderboardSeq number the reads; only the latest one is applied.
	stats        *models.ReaderStats
	statsLoading bool
	statsErr     string
	statsSeq     uint64

	leaderboard        []models.ReaderStats
	leaderboardLoading bool
	leaderboardErr     string
	leaderboardSeq     uint64

	form sessionForm

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// A nil logger discards log output; the TUI owns the terminal, so callers pass a file logger.
func NewModel(ctx context.Context, backend services.Backend, identity services.Identity, pageSize int, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Model{
		ctx:      ctx,
		view:     MenuView,
		backend:  backend,
		identity: identity,
		query:    pager.NewQuery(backend, pageSize),
		browser:  pager.NewController(pageSize),
		logger:   logger,
		menu:     newMenu(60, 14),
		form:     newSessionForm(time.Now()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init resolves the signed-in reader; the session browser stays idle until it does.
func (m *Model) Init() tea.Cmd {
	return m.resolveIdentity()
}

// Browser returns a snapshot of the session browser.
func (m *Model) Browser() pager.State {
	return m.browser.State()
}

// CurrentView returns the active view.
func (m *Model) CurrentView() ViewState {
	return m.view
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case SessionsView:
			return m.handleSessionsKeys(msg)
		case LeaderboardView:
			return m.handleLeaderboardKeys(msg)
		case AddSessionView:
			return m.handleFormKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == AddSessionView {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgIdentityResolved:
		res := msg.data.(identityResult)
		if res.err != nil {
			m.authErr = res.err
			m.logger.Warn("identity unavailable", "error", res.err)
			return m, nil
		}
		m.user = res.identity
		m.authErr = nil
		m.logger.Info("signed in", "user", res.identity.Email)

		fetch, ok := m.browser.SetOwner(res.identity.UserID)
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.fetchPage(fetch), m.fetchStats())

	case MsgPageFetched:
		result := msg.data.(pager.Result)
		if !m.browser.Apply(result) {
			m.logger.Debug("discarded stale page", "seq", result.Seq, "page", result.Page)
			return m, nil
		}
		if result.Err != nil {
			m.logger.Error("page fetch failed", "page", result.Page, "error", result.Err)
		}
		return m, nil

	case MsgStatsFetched:
		res := msg.data.(statsResult)
		if m.user == nil || res.owner != m.user.UserID || res.seq != m.statsSeq {
			m.logger.Debug("discarded stale stats", "seq", res.seq, "owner", res.owner)
			return m, nil
		}
		m.statsLoading = false
		m.stats, m.statsErr = nil, ""
		switch {
		case errors.Is(res.err, shared.ErrNotFound):
		case res.err != nil:
			m.statsErr = pager.ErrorMessage(res.err)
		default:
			m.stats = res.stats
		}
		return m, nil

	case MsgLeaderboardFetched:
		res := msg.data.(leaderboardResult)
		if res.seq != m.leaderboardSeq {
			return m, nil
		}
		m.leaderboardLoading = false
		m.leaderboard, m.leaderboardErr = res.rows, ""
		if res.err != nil {
			m.leaderboard = nil
			m.leaderboardErr = pager.ErrorMessage(res.err)
		}
		return m, nil

	case MsgSessionSaved:
		res := msg.data.(saveResult)
		m.form.submitting = false
		if res.err != nil {
			m.form.err = pager.ErrorMessage(res.err)
			return m, nil
		}

		m.form = newSessionForm(time.Now())
		m.form.saved = fmt.Sprintf("Session added: %d pages in %d min", res.session.Pages, res.session.Minutes)

		if fetch, ok := m.browser.Reload(); ok {
			return m, tea.Batch(m.fetchPage(fetch), m.fetchStats())
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.menu.SelectedItem().(menuItem); ok {
			return m.open(item.view)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// open switches to view, starting the reads the view needs.
func (m *Model) open(view ViewState) (tea.Model, tea.Cmd) {
	m.view = view
	switch view {
	case LeaderboardView:
		m.leaderboardLoading = true
		return m, m.fetchLeaderboard()
	case AddSessionView:
		m.form.saved, m.form.err = "", ""
	}
	return m, nil
}

func (m *Model) handleSessionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		fetch pager.Fetch
		ok    bool
	)

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MenuView
		return m, nil
	case key.Matches(msg, m.keys.next):
		fetch, ok = m.browser.Next()
	case key.Matches(msg, m.keys.prev):
		fetch, ok = m.browser.Previous()
	case key.Matches(msg, m.keys.goTo):
		n, _ := strconv.Atoi(msg.String())
		fetch, ok = m.browser.GoTo(n)
	case key.Matches(msg, m.keys.reload):
		if m.user == nil {
			return m, m.resolveIdentity()
		}
		fetch, ok = m.browser.Reload()
		if ok {
			return m, tea.Batch(m.fetchPage(fetch), m.fetchStats())
		}
	}

	if !ok {
		return m, nil
	}
	return m, m.fetchPage(fetch)
}

func (m *Model) handleLeaderboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MenuView
	case key.Matches(msg, m.keys.reload):
		m.leaderboardLoading = true
		return m, m.fetchLeaderboard()
	}
	return m, nil
}

// handleFormKeys leaves printable keys (q included) to the focused input.
func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		return m, nil
	case "tab", "down":
		m.form.move(1)
		return m, nil
	case "shift+tab", "up":
		m.form.move(-1)
		return m, nil
	case "enter":
		if m.form.focus < len(m.form.inputs)-1 {
			m.form.move(1)
			return m, nil
		}
		return m, m.submit()
	case "ctrl+s":
		return m, m.submit()
	}

	return m, m.form.update(msg)
}

func (m *Model) submit() tea.Cmd {
	if m.form.submitting {
		return nil
	}
	if m.user == nil {
		m.form.err = "not signed in: run readlog auth login"
		return nil
	}

	session, err := m.form.session(m.user.UserID)
	if err != nil {
		m.form.err = err.Error()
		m.form.saved = ""
		return nil
	}

	m.form.err, m.form.saved = "", ""
	m.form.submitting = true
	return m.saveSession(session)
}

func (m *Model) resolveIdentity() tea.Cmd {
	return func() tea.Msg {
		identity, err := m.identity.CurrentUser(m.ctx)
		return identityResolvedMsg(identity, err)
	}
}

// fetchPage runs f off the update loop; the result comes back through [pager.Controller.Apply].
func (m *Model) fetchPage(f pager.Fetch) tea.Cmd {
	return func() tea.Msg {
		return pageFetchedMsg(m.query.Run(m.ctx, f))
	}
}

func (m *Model) fetchStats() tea.Cmd {
	if m.user == nil {
		return nil
	}
	owner := m.user.UserID
	m.statsLoading = true
	m.statsSeq++
	seq := m.statsSeq
	return func() tea.Msg {
		stats, err := m.backend.ReaderStats(m.ctx, owner)
		return statsFetchedMsg(seq, owner, stats, err)
	}
}

func (m *Model) fetchLeaderboard() tea.Cmd {
	m.leaderboardSeq++
	seq := m.leaderboardSeq
	return func() tea.Msg {
		rows, err := m.backend.Leaderboard(m.ctx)
		return leaderboardFetchedMsg(seq, rows, err)
	}
}

func (m *Model) saveSession(session *models.ReadingSession) tea.Cmd {
	return func() tea.Msg {
		err := m.backend.InsertSession(m.ctx, session)
		return sessionSavedMsg(session, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MenuView:
		return m.renderMenu()
	case SessionsView:
		return m.renderSessions()
	case LeaderboardView:
		return m.renderLeaderboard()
	case AddSessionView:
		return m.renderForm()
	default:
		return ""
	}
}

func (m *Model) renderMenu() string {
	status := styles.help.Render("Signing in...")
	switch {
	case m.user != nil:
		status = styles.ok.Render("Signed in as " + m.user.Email)
	case m.authErr != nil:
		status = styles.warn.Render(m.authHint())
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.menu.View(), status, helpView)
}

func (m *Model) renderSessions() string {
	title := styles.title.Render("My Stats")
	if m.authErr != nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, styles.warn.Render(m.authHint()), helpView)
	}

	card := renderStatsCard(m.stats, m.statsLoading, m.statsErr)
	browser := RenderBrowser(m.browser.State())

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.prev, m.keys.next, m.keys.goTo, m.keys.reload, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, card, browser, helpView)
}

func (m *Model) renderLeaderboard() string {
	title := styles.title.Render("Leaderboard")
	board := renderLeaderboard(m.leaderboard, m.leaderboardLoading, m.leaderboardErr)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, board, helpView)
}

func (m *Model) renderForm() string {
	title := styles.title.Render("Add Session")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.field, m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s", title, m.form.view(), helpView)
}

func (m *Model) authHint() string {
	if errors.Is(m.authErr, shared.ErrNotAuthenticated) {
		return "Not signed in: run `readlog auth login` and press r"
	}
	return "Could not load your account: " + pager.ErrorMessage(m.authErr)
}
