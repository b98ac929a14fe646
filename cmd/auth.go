package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/services"
	"github.com/desertthunder/readlog/internal/shared"
)

// authenticator returns the identity service when it supports password sign-in.
func (r *Runner) authenticator() (services.Authenticator, error) {
	if err := r.connect(); err != nil {
		return nil, err
	}
	auth, ok := r.identity.(services.Authenticator)
	if !ok {
		return nil, fmt.Errorf("%w: the %s backend has no sign-in; readers are taken from [local] in the config",
			shared.ErrInvalidArgument, r.backend.Name())
	}
	return auth, nil
}

// AuthLogin signs in with email and password and stores the session token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.StringArg("email"))
	password := cmd.String("password")

	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrMissingArgument)
	}
	if password == "" {
		return fmt.Errorf("%w: --password or READLOG_PASSWORD is required", shared.ErrMissingCredentials)
	}

	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email, "backend", r.backend.Name())

	user, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	r.logger.Info("authentication successful", "user", user.UserID)
	return r.writePlain("✓ Signed in as %s\n", user.Email)
}

// AuthStatus reports the signed-in reader, if any.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	user, err := r.identity.CurrentUser(ctx)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		if cmd.Bool("json") {
			return r.writeJSON(map[string]any{"authenticated": false, "backend": r.backend.Name()}, false)
		}
		return r.writePlain("✗ Not signed in (%s backend)\nRun 'readlog auth login <email>' to sign in.\n", r.backend.Name())
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"authenticated": true, "backend": r.backend.Name(), "user": user}, false)
	}

	r.writePlain("✓ Signed in (%s backend)\n", r.backend.Name())
	r.writePlain("Email: %s\n", user.Email)
	return r.writePlain("ID: %s\n", user.UserID)
}

// AuthLogout clears the stored session token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	if err := auth.Logout(ctx); err != nil {
		return err
	}

	r.logger.Info("signed out")
	return r.writePlain("✓ Signed out\n")
}
