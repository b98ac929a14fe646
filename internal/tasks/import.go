package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

const (
	DefaultImportWorkers = 4
	MaxImportWorkers     = 10
	DefaultImportRate    = 5.0
)

// ImportOpts contains configuration for bulk session imports.
type ImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Inserts per second (default: 5)
}

// Importer inserts sessions through a backend concurrently with rate limiting and progress tracking.
type Importer struct {
	backend Inserter
}

// NewImporter creates an [Importer] writing through backend.
func NewImporter(backend Inserter) *Importer {
	return &Importer{backend: backend}
}

type importJob struct {
	index   int
	session *models.ReadingSession
}

// Import inserts sessions with a worker pool.
//
// Per-session failures are collected in the result and do not stop the import. Canceling ctx stops
// handing out work; sessions never attempted are counted as skipped and ctx.Err() is returned along
// with the partial result.
func (i *Importer) Import(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	sessions []*models.ReadingSession,
	opts ImportOpts,
) (*ImportResult, error) {
	if i.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultImportWorkers
	}
	if opts.NumWorkers > MaxImportWorkers {
		opts.NumWorkers = MaxImportWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultImportRate
	}

	result := &ImportResult{
		Total:   len(sessions),
		Results: make([]SessionImportResult, 0, len(sessions)),
	}
	if len(sessions) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan importJob)
	results := make(chan SessionImportResult, len(sessions))

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go i.importWorker(ctx, &wg, limiter, jobs, results)
	}

	sendProgress(prog, importStartedUpdate(len(sessions), opts.NumWorkers))

	go func() {
		defer close(jobs)
		for index, session := range sessions {
			select {
			case <-ctx.Done():
				return
			case jobs <- importJob{index: index, session: session}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Imported++
			sendProgress(prog, importCompletedUpdate(completed, len(sessions), res.Session))
		} else {
			result.Failed++
			sendProgress(prog, importFailedUpdate(completed, len(sessions), res.Index, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b SessionImportResult) int { return a.Index - b.Index })
	result.Skipped = result.Total - result.Imported - result.Failed

	if err := ctx.Err(); err != nil && result.Skipped > 0 {
		return result, fmt.Errorf("import canceled after %d of %d sessions: %w", completed, len(sessions), err)
	}
	return result, nil
}

// importWorker inserts sessions from the jobs channel, waiting on the shared limiter before each insert.
func (i *Importer) importWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan importJob,
	results chan<- SessionImportResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := SessionImportResult{Index: job.index, Session: job.session}

		if err := limiter.Wait(ctx); err != nil {
			// canceled while waiting; the session was never sent
			continue
		}

		if err := i.backend.InsertSession(ctx, job.session); err != nil {
			res.Error = err
		} else {
			res.Success = true
		}
		results <- res
	}
}
