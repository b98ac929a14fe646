// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/formatter"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/tasks"
)

// setupCommand handles first-run setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the local database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing and apply pending migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "migrations",
				Usage: "Show which migrations have been applied",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MigrationsStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrationsRollback,
			},
		},
	}
}

// authCommand handles sign-in against the identity service
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in and out of the remote backend",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "email",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("READLOG_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in reader",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
		},
	}
}

// sessionCommand handles reading session operations
func sessionCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sessions"},
		Usage:   "Reading session operations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Log a reading session",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "minutes",
						Aliases:  []string{"m"},
						Usage:    "Minutes spent reading",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "pages",
						Aliases:  []string{"p"},
						Usage:    "Pages read",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "notes",
						Aliases: []string{"n"},
						Usage:   "Free-form notes",
					},
					&cli.StringFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Session date (YYYY-MM-DD, default today)",
					},
				},
				Action: r.SessionAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Show one page of your sessions, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number (1-based)",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: fmt.Sprintf("Page size (default from config, %d when unset)", pager.DefaultPageSize),
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SessionList,
			},
			{
				Name:  "export",
				Usage: "Export your sessions and stats",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (" + strings.Join(formats, ", ") + ")",
						Value:   string(formatter.FormatCSV),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base path for csv, directory for markdown)",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory for generated file names",
					},
				},
				Action: r.SessionExport,
			},
			{
				Name:  "import",
				Usage: "Import sessions from a CSV export",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent inserts",
						Value: tasks.DefaultImportWorkers,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Inserts per second (default from remote.rate_limit)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Parse and validate without inserting",
					},
				},
				Action: r.SessionImport,
			},
		},
	}
}

// statsCommand prints the signed-in reader's aggregate stats
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show your reading stats",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Stats,
	}
}

// leaderboardCommand prints every reader ordered by total pages
func leaderboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "leaderboard",
		Aliases: []string{"top"},
		Usage:   "Compare readers by total pages",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum rows to show (0 for all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Leaderboard,
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse your sessions in the terminal",
		Action: r.TUI,
	}
}

// serveCommand runs the web UI
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (default from server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the browser once the server is listening",
			},
		},
		Action: r.Serve,
	}
}
