package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/shared"
)

// maxPageLinks is the largest page count that still lists every page number.
const maxPageLinks = 10

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	body, err := shared.MarshalJSON(map[string]string{"status": "ok", "backend": a.backend.Name()}, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "index", view{Title: "Reading Tracker", Reader: readerFrom(r.Context())})
}

type sessionsView struct {
	view
	Stats      *models.ReaderStats
	StatsError string
	Page       *pager.Page
	Error      string
	Links      []int
	Added      bool
	// Requested is the page asked for, kept when the read fails.
	Requested int
}

// Previous stays available after a failed read; Next needs a known total.
func (v sessionsView) HasPrevious() bool { return v.Requested > 1 }
func (v sessionsView) HasNext() bool     { return v.Page != nil && v.Requested < v.Page.TotalPages }
func (v sessionsView) Previous() int     { return v.Requested - 1 }
func (v sessionsView) Next() int         { return v.Requested + 1 }

func (a *App) handleSessions(w http.ResponseWriter, r *http.Request) {
	reader := readerFrom(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > pager.MaxPage(a.query.PageSize()) {
			redirectToPage(w, r, 1)
			return
		}
		page = n
	}

	data := sessionsView{
		view:      view{Title: "My Stats", Reader: reader},
		Added:     r.URL.Query().Get("added") == "1",
		Requested: page,
	}

	var (
		result   *pager.Page
		queryErr error
	)

	// errgroup without WithContext: a failed stats read must not cancel the page read
	var g errgroup.Group
	g.Go(func() error {
		stats, err := a.backend.ReaderStats(r.Context(), reader.UserID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
		case err != nil:
			a.logger.Warn("stats fetch failed", "user", reader.UserID, "error", err)
			data.StatsError = pager.ErrorMessage(err)
		default:
			data.Stats = stats
		}
		return nil
	})
	g.Go(func() error {
		result, queryErr = a.query.Page(r.Context(), reader.UserID, page)
		return nil
	})
	g.Wait()

	if queryErr != nil {
		a.logger.Error("session page failed", "user", reader.UserID, "page", page, "error", queryErr)
		data.Error = pager.ErrorMessage(queryErr)
		a.render(w, http.StatusBadGateway, "sessions", data)
		return
	}

	if last := max(result.TotalPages, 1); page > last {
		redirectToPage(w, r, last)
		return
	}

	data.Page = result
	if result.TotalPages <= maxPageLinks {
		for n := 1; n <= result.TotalPages; n++ {
			data.Links = append(data.Links, n)
		}
	}
	a.render(w, http.StatusOK, "sessions", data)
}

func redirectToPage(w http.ResponseWriter, r *http.Request, page int) {
	http.Redirect(w, r, fmt.Sprintf("/sessions?page=%d", page), http.StatusSeeOther)
}

type sessionFormView struct {
	view
	Error   string
	Minutes string
	Pages   string
	Notes   string
	Date    string
}

func (a *App) handleNewSession(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "new", sessionFormView{
		view: view{Title: "Add Session", Reader: readerFrom(r.Context())},
		Date: time.Now().Format(shared.DateLayout),
	})
}

func (a *App) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	reader := readerFrom(r.Context())

	if err := r.ParseForm(); err != nil {
		a.renderError(w, http.StatusBadRequest, "Could not read the form: "+err.Error())
		return
	}

	form := sessionFormView{
		view:    view{Title: "Add Session", Reader: reader},
		Minutes: strings.TrimSpace(r.PostForm.Get("minutes")),
		Pages:   strings.TrimSpace(r.PostForm.Get("pages")),
		Notes:   strings.TrimSpace(r.PostForm.Get("notes")),
		Date:    strings.TrimSpace(r.PostForm.Get("session_date")),
	}

	session, err := parseSessionForm(form, reader.UserID)
	if err != nil {
		form.Error = err.Error()
		a.render(w, http.StatusUnprocessableEntity, "new", form)
		return
	}

	if err := a.backend.InsertSession(r.Context(), session); err != nil {
		a.logger.Error("insert failed", "user", reader.UserID, "error", err)
		form.Error = "Could not save the session: " + pager.ErrorMessage(err)
		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusUnprocessableEntity
		}
		a.render(w, status, "new", form)
		return
	}

	a.logger.Info("session added", "user", reader.UserID, "id", session.ID, "pages", session.Pages)
	http.Redirect(w, r, "/sessions?page=1&added=1", http.StatusSeeOther)
}

func parseSessionForm(form sessionFormView, owner string) (*models.ReadingSession, error) {
	minutes, err := strconv.Atoi(form.Minutes)
	if err != nil || minutes < 0 {
		return nil, errors.New("minutes must be a whole number of at least 0")
	}
	pages, err := strconv.Atoi(form.Pages)
	if err != nil || pages < 0 {
		return nil, errors.New("pages must be a whole number of at least 0")
	}
	date, err := shared.ParseDate(form.Date)
	if err != nil {
		return nil, fmt.Errorf("date must look like %s", shared.DateLayout)
	}

	session := models.NewReadingSession(owner, minutes, pages, form.Notes, date)
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

type leaderboardView struct {
	view
	Rows  []models.ReaderStats
	Error string
}

func (a *App) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	data := leaderboardView{view: view{Title: "Leaderboard", Reader: readerFrom(r.Context())}}

	rows, err := a.backend.Leaderboard(r.Context())
	if err != nil {
		a.logger.Error("leaderboard fetch failed", "error", err)
		data.Error = pager.ErrorMessage(err)
		a.render(w, http.StatusBadGateway, "leaderboard", data)
		return
	}

	data.Rows = rows
	a.render(w, http.StatusOK, "leaderboard", data)
}
