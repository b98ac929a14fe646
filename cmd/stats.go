package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/readlog/internal/shared"
)

// Stats prints the signed-in reader's aggregate stats.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	user, err := r.currentUser(ctx)
	if err != nil {
		return err
	}

	stats, err := r.backend.ReaderStats(ctx, user.UserID)
	if errors.Is(err, shared.ErrNotFound) {
		return r.writePlain("No stats available. Log a session with 'readlog session add'.\n")
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Your Reading Stats")
	r.writePlain("Total Pages:      %s\n", shared.FormatNumber(stats.TotalPages))
	r.writePlain("Total Minutes:    %s\n", shared.FormatNumber(stats.TotalMinutes))
	r.writePlain("Sessions:         %s\n", shared.FormatNumber(stats.TotalSessions))
	r.writePlain("Avg Pages:        %s\n", shared.RoundAverage(stats.AvgPagesPerSession))
	r.writePlain("Avg Minutes:      %s\n", shared.RoundAverage(stats.AvgMinutesPerSession))
	if !stats.LastSessionDate.IsZero() {
		r.writePlain("Last Session:     %s (%s)\n", shared.FormatDate(stats.LastSessionDate), shared.FormatRelative(stats.LastSessionDate))
	}
	return nil
}

// Leaderboard prints every reader ordered by total pages.
func (r *Runner) Leaderboard(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.currentUser(ctx); err != nil {
		return err
	}

	rows, err := r.backend.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if limit := int(cmd.Int("limit")); limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}
	if len(rows) == 0 {
		return r.writePlain("No stats available.\n")
	}

	r.writePlainHeader("Leaderboard")
	w := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tREADER\tPAGES\tMINUTES\tSESSIONS")
	for i, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, row.Email,
			shared.FormatNumber(row.TotalPages), shared.FormatNumber(row.TotalMinutes), shared.FormatNumber(row.TotalSessions))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
