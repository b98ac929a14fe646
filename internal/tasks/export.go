package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/readlog/internal/formatter"
	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/services"
	"github.com/desertthunder/readlog/internal/shared"
)

// exportBatch is the range size used to walk a reader's sessions.
const exportBatch = 100

// BuildExport gathers a reader's stats and every session concurrently.
//
// A reader without sessions has no stats row; the export then carries nil stats.
func BuildExport(ctx context.Context, prog chan<- ProgressUpdate, backend services.Backend, reader models.Identity) (*models.ReadingExport, error) {
	export := &models.ReadingExport{Reader: reader}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sendProgress(prog, fetchStatsUpdate(reader))
		stats, err := backend.ReaderStats(gctx, reader.UserID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}
		export.Stats = stats
		return nil
	})

	g.Go(func() error {
		sendProgress(prog, fetchSessionsUpdate(reader))
		sessions, err := services.AllSessions(gctx, backend, reader.UserID, exportBatch)
		if err != nil {
			return fmt.Errorf("failed to fetch sessions: %w", err)
		}
		export.Sessions = sessions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if export.Sessions == nil {
		export.Sessions = []models.ReadingSession{}
	}
	return export, nil
}

// WriteExport writes an export in the given format.
//
// output is a base path for csv, a directory for markdown and a file path for txt and yaml; an empty
// output uses names derived from the reader's email in outputDir (or the working directory).
func WriteExport(prog chan<- ProgressUpdate, export *models.ReadingExport, format formatter.Format, outputDir, output string) (*ExportResult, error) {
	sendProgress(prog, writeFilesUpdate(string(format), len(export.Sessions)))

	target := output
	if target == "" && outputDir != "" {
		target = filepath.Join(outputDir, formatter.DefaultBaseName(export))
		switch format {
		case formatter.FormatText:
			target += "_sessions.txt"
		case formatter.FormatYAML:
			target += ".yaml"
		}
	}

	result := &ExportResult{Format: string(format), Sessions: len(export.Sessions)}

	switch format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(export, target)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		result.Files = []string{csvRes.SessionsFile, csvRes.StatsFile}

	case formatter.FormatMarkdown:
		file, err := formatter.WriteMarkdownExport(export, target)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		result.Files = []string{file}

	case formatter.FormatText:
		file, err := formatter.WriteTextExport(export, target)
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		result.Files = []string{file}

	case formatter.FormatYAML:
		file, err := formatter.WriteYAMLExport(export, target)
		if err != nil {
			return nil, fmt.Errorf("YAML export failed: %w", err)
		}
		result.Files = []string{file}

	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}

	return result, nil
}
