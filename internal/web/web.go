// Package web serves the reading tracker as server-rendered HTML pages.
//
// # Routes
//
//	GET  /                → links to the other pages
//	GET  /sessions?page=N → stats card plus page N of the signed-in reader's sessions
//	GET  /sessions/new    → add-session form
//	POST /sessions        → insert a session, redirect to /sessions
//	GET  /leaderboard     → every reader ordered by total pages
//	GET  /healthz         → JSON liveness probe with the backend name
//
// Every page except /healthz requires a signed-in reader. Visitors without one get a 401 page telling them to run
// `readlog auth login`.
//
// # Pagination
//
// The sessions page runs one [pager.Query] per request; the stats row and the page are fetched concurrently.
// Pages below 1 or past the last page redirect to the nearest valid page.
//
// Templates are embedded with [embed] and rendered with html/template.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/server"
	"github.com/desertthunder/readlog/internal/services"
	"github.com/desertthunder/readlog/internal/shared"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageNames = []string{"index", "sessions", "new", "leaderboard", "unauthorized", "error"}

var templateFuncs = template.FuncMap{
	"number": shared.FormatNumber,
	"date":   shared.FormatDate,
	"round":  shared.RoundAverage,
	"inc":    func(i int) int { return i + 1 },
}

// App renders the web UI on top of a backend and identity service.
type App struct {
	backend  services.Backend
	identity services.Identity
	query    *pager.Query
	logger   *log.Logger
	pages    map[string]*template.Template
}

// New parses the embedded templates and creates an [App]. A nil logger discards log output.
func New(backend services.Backend, identity services.Identity, pageSize int, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &App{
		backend:  backend,
		identity: identity,
		query:    pager.NewQuery(backend, pageSize),
		logger:   logger,
		pages:    pages,
	}, nil
}

// Handler returns the router serving every route of the app.
func (a *App) Handler() http.Handler {
	router := server.NewBasicRouter()
	router.Use(server.Recover(a.logger), server.Logging(a.logger))

	router.HandleFunc(http.MethodGet, "/healthz", a.handleHealth)
	router.Handle(http.MethodGet, "/{$}", a.requireReader(http.HandlerFunc(a.handleIndex)))
	router.Handle(http.MethodGet, "/sessions", a.requireReader(http.HandlerFunc(a.handleSessions)))
	router.Handle(http.MethodPost, "/sessions", a.requireReader(http.HandlerFunc(a.handleCreateSession)))
	router.Handle(http.MethodGet, "/sessions/new", a.requireReader(http.HandlerFunc(a.handleNewSession)))
	router.Handle(http.MethodGet, "/leaderboard", a.requireReader(http.HandlerFunc(a.handleLeaderboard)))
	return router
}

// view carries the fields the layout template reads.
type view struct {
	Title  string
	Reader *models.Identity
}

type readerKey struct{}

// requireReader resolves the signed-in reader and stores it in the request context.
func (a *App) requireReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader, err := a.identity.CurrentUser(r.Context())
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				a.render(w, http.StatusUnauthorized, "unauthorized", view{Title: "Sign in required"})
				return
			}
			a.logger.Error("identity lookup failed", "error", err)
			a.renderError(w, http.StatusServiceUnavailable, "Could not reach the identity service: "+pager.ErrorMessage(err))
			return
		}

		ctx := context.WithValue(r.Context(), readerKey{}, reader)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readerFrom(ctx context.Context) *models.Identity {
	reader, _ := ctx.Value(readerKey{}).(*models.Identity)
	return reader
}

type errorView struct {
	view
	Message string
}

func (a *App) renderError(w http.ResponseWriter, status int, message string) {
	a.render(w, status, "error", errorView{view: view{Title: http.StatusText(status)}, Message: message})
}

// render executes a page into a buffer before writing the status line.
func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := a.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("template render failed", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
