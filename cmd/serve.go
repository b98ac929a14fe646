package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/server"
	"github.com/desertthunder/readlog/internal/shared"
	"github.com/desertthunder/readlog/internal/web"
)

// Serve runs the web UI until ctx is canceled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Port = port
	}
	addr := cfg.Addr()

	app, err := web.New(r.backend, r.identity, r.pageSize(), shared.WithLogger(r.logger, "component", "web"))
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s", addr)
	ready := func() {
		r.writePlain("Serving readlog on %s (Ctrl+C to stop)\n", url)
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "error", err)
			}
		}
	}

	return server.Serve(ctx, addr, app.Handler(), r.logger, ready)
}
