package pager

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/desertthunder/readlog/internal/models"
	"github.com/desertthunder/readlog/internal/shared"
)

// DefaultPageSize is the number of sessions shown per page.
const DefaultPageSize = 15

// RangeReader reads a contiguous slice of one owner's sessions, newest first.
//
// from and to are zero-based and inclusive. The returned count is the number of sessions the owner
// has in total, independent of the slice.
type RangeReader interface {
	RangeSessions(ctx context.Context, ownerID string, from, to int) ([]models.ReadingSession, int, error)
}

// QueryError reports a failed or malformed range read.
//
// It matches [shared.ErrQueryFailed] and the underlying cause with [errors.Is].
type QueryError struct {
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() []error {
	if e.Err == nil {
		return []error{shared.ErrQueryFailed}
	}
	return []error{shared.ErrQueryFailed, e.Err}
}

// Page is one validated slice of an owner's sessions.
type Page struct {
	Records    []models.ReadingSession
	Total      int
	Page       int
	TotalPages int
	From       int
	To         int
}

// RangeFor returns the inclusive zero-based row range of a one-based page.
func RangeFor(page, pageSize int) (from, to int) {
	from = (page - 1) * pageSize
	return from, from + pageSize - 1
}

// MaxPage returns the last page number whose row range fits in an int.
func MaxPage(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (math.MaxInt-pageSize)/pageSize + 1
}

// TotalPages returns ceil(total / pageSize); zero rows means zero pages.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Query reads fixed-size pages of sessions from a [RangeReader].
type Query struct {
	store    RangeReader
	pageSize int
}

// NewQuery creates a [Query]. A non-positive page size falls back to [DefaultPageSize].
func NewQuery(store RangeReader, pageSize int) *Query {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Query{store: store, pageSize: pageSize}
}

// PageSize returns the fixed page size.
func (q *Query) PageSize() int {
	return q.pageSize
}

// Page fetches one page of the owner's sessions.
//
// An empty owner or a page below 1 is rejected with [shared.ErrInvalidArgument] before any read is
// issued. Store failures and malformed responses are reported as [*QueryError]; no partial page is
// ever returned with an error.
func (q *Query) Page(ctx context.Context, ownerID string, page int) (*Page, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner identifier is required", shared.ErrInvalidArgument)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1, got %d", shared.ErrInvalidArgument, page)
	}
	if last := MaxPage(q.pageSize); page > last {
		return nil, fmt.Errorf("%w: page must be at most %d, got %d", shared.ErrInvalidArgument, last, page)
	}

	from, to := RangeFor(page, q.pageSize)

	rows, total, err := q.store.RangeSessions(ctx, ownerID, from, to)
	if err != nil {
		return nil, &QueryError{Message: fmt.Sprintf("could not load sessions: %v", err), Err: err}
	}

	if err := q.check(ownerID, rows, total); err != nil {
		return nil, &QueryError{Message: fmt.Sprintf("could not load sessions: %v", err), Err: err}
	}

	if rows == nil {
		rows = []models.ReadingSession{}
	}

	return &Page{
		Records:    rows,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total, q.pageSize),
		From:       from,
		To:         to,
	}, nil
}

// check rejects responses that cannot describe the requested page.
func (q *Query) check(ownerID string, rows []models.ReadingSession, total int) error {
	if total < 0 {
		return fmt.Errorf("%w: negative total %d", shared.ErrMalformedResponse, total)
	}
	if len(rows) > q.pageSize {
		return fmt.Errorf("%w: %d rows for a page of %d", shared.ErrMalformedResponse, len(rows), q.pageSize)
	}
	if len(rows) > total {
		return fmt.Errorf("%w: %d rows but total is %d", shared.ErrMalformedResponse, len(rows), total)
	}
	for _, row := range rows {
		if row.UserID != ownerID {
			return fmt.Errorf("%w: row %s belongs to another reader", shared.ErrMalformedResponse, row.ID)
		}
	}
	return nil
}

// Run executes a fetch issued by a [Controller] and packages the outcome for [Controller.Apply].
func (q *Query) Run(ctx context.Context, f Fetch) Result {
	page, err := q.Page(ctx, f.OwnerID, f.Page)
	if err != nil {
		return Result{Fetch: f, Err: err}
	}
	return Result{Fetch: f, Records: page.Records, Total: page.Total}
}

// ErrorMessage renders an error the way the browser shows it.
func ErrorMessage(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}
