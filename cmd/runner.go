package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/services"
	"github.com/desertthunder/readlog/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend and identity are built from the config on first use unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	backend    services.Backend
	identity   services.Identity
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    services.Backend
	Identity   services.Identity
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		identity:   opts.Identity,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, sessionCommand, statsCommand, leaderboardCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and any backend it builds later.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// connect builds the backend and identity service selected by backend.mode.
func (r *Runner) connect() error {
	if r.backend != nil && r.identity != nil {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	switch r.config.Backend.Mode {
	case shared.BackendLocal:
		db, err := r.openDatabase()
		if err != nil {
			return err
		}

		applied, err := shared.RunMigrations(db)
		if err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if applied > 0 {
			r.logger.Info("applied migrations", "count", applied, "path", r.config.Database.Path)
		}

		r.db = db
		r.backend = services.NewLocalBackend(db)
		r.identity = services.NewLocalIdentity(db, r.config.Local.Email, r.config.Local.Name)

	case shared.BackendRemote:
		client, err := services.NewRemoteClient(r.config.Remote,
			services.WithHTTPClient(r.httpClient),
			services.WithLogger(r.logger),
		)
		if err != nil {
			return err
		}
		r.backend = client
		r.identity = client
	}

	r.logger.Debug("backend ready", "mode", r.backend.Name())
	return nil
}

// openDatabase opens the configured SQLite file without running migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.config.Database.Path == "" {
		return nil, fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
	}
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.Path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// Close releases the local database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// currentUser connects and resolves the signed-in reader.
func (r *Runner) currentUser(ctx context.Context) (*models.Identity, error) {
	if err := r.connect(); err != nil {
		return nil, err
	}
	user, err := r.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'readlog auth login')", err)
	}
	return user, nil
}

func (r *Runner) pageSize() int {
	return r.config.Backend.PageSize
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
