package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/formatter"
	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/pager"
	"github.com/desertthunder/readlog/internal/shared"
	"github.com/desertthunder/readlog/internal/tasks"
)

// SessionAdd logs one reading session for the signed-in reader.
func (r *Runner) SessionAdd(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}

	date, err := shared.ParseDate(cmd.String("date"))
	if err != nil {
		return fmt.Errorf("%w: --date must look like %s", shared.ErrInvalidArgument, shared.DateLayout)
	}

	session := models.NewReadingSession(user.UserID, int(cmd.Int("minutes")), int(cmd.Int("pages")), cmd.String("notes"), date)
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := r.backend.InsertSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.logger.Info("session added", "id", session.ID, "pages", session.Pages, "minutes", session.Minutes)
	return r.writePlain("✓ Logged %s pages in %s on %s\n",
		shared.FormatNumber(session.Pages), shared.FormatMinutes(session.Minutes), shared.FormatDate(session.SessionDate))
}

// SessionList prints one page of the reader's sessions, newest first.
func (r *Runner) SessionList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}

	size := int(cmd.Int("size"))
	if size <= 0 {
		size = r.pageSize()
	}
	number := int(cmd.Int("page"))
	if number < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidArgument)
	}

	page, err := pager.NewQuery(r.backend, size).Page(ctx, user.UserID, number)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	if page.Total == 0 {
		return r.writePlain("No reading sessions found. 😭\n")
	}
	if len(page.Records) == 0 {
		return r.writePlain("Page %d is past the last page (%d).\n", page.Page, page.TotalPages)
	}

	r.writePlainHeader(fmt.Sprintf("Sessions for %s", user.Email))

	w := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPAGES\tMINUTES\tNOTES")
	for _, s := range page.Records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", shared.FormatDate(s.SessionDate), s.Pages, s.Minutes, s.Notes)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return r.writePlainln("Page %d of %d (%s sessions)", page.Page, page.TotalPages, shared.FormatNumber(page.Total))
}

// SessionExport writes the reader's sessions and stats in the requested format.
func (r *Runner) SessionExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}

	progressCh, done := r.logProgress()
	export, err := tasks.BuildExport(ctx, progressCh, r.backend, *user)
	if err != nil {
		close(progressCh)
		<-done
		return err
	}

	result, err := tasks.WriteExport(progressCh, export, format, cmd.String("dir"), cmd.String("output"))
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d sessions as %s\n", result.Sessions, result.Format)
	for _, file := range result.Files {
		r.writePlain("  %s\n", file)
	}
	return nil
}

// SessionImport inserts every session of a CSV file for the signed-in reader.
func (r *Runner) SessionImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a CSV file is required", shared.ErrMissingArgument)
	}

	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	sessions, err := formatter.ParseCSV(file, user.UserID)
	if err != nil {
		return err
	}
	r.logger.Info("parsed import file", "path", path, "sessions", len(sessions))

	if cmd.Bool("dry-run") {
		return r.writePlain("✓ %d sessions are valid; nothing was inserted (dry run)\n", len(sessions))
	}

	rate := cmd.Float("rate")
	if rate <= 0 && r.backend.Name() == shared.BackendRemote {
		rate = r.config.Remote.RateLimit
	}

	progressCh, done := r.logProgress()
	result, err := tasks.NewImporter(r.backend).Import(ctx, progressCh, sessions, tasks.ImportOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  rate,
	})
	close(progressCh)
	<-done
	if result == nil {
		return err
	}

	r.writePlain("✓ Imported %d of %d sessions\n", result.Imported, result.Total)
	if result.Failed > 0 {
		r.writePlain("✗ %d failed:\n", result.Failed)
		for _, res := range result.Results {
			if !res.Success && res.Error != nil {
				r.writePlain("  row %d: %v\n", res.Index+1, res.Error)
			}
		}
	}
	if result.Skipped > 0 {
		r.writePlain("%d skipped after cancellation\n", result.Skipped)
	}

	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return errors.New("some sessions could not be imported")
	}
	return nil
}

// logProgress starts a goroutine that logs task progress until the returned channel is closed.
// done is closed once every buffered update has been logged.
func (r *Runner) logProgress() (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()

	return progressCh, done
}
