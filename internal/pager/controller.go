package pager

import (
	"slices"

	"github.com/desertthunder/readlog/internal/models"
)

// Status is the fetch status of the browser.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Fetch is a page read issued by a [Controller].
//
// Seq increases with every fetch the controller issues and identifies the one result it will accept.
type Fetch struct {
	Seq     uint64
	OwnerID string
	Page    int
}

// Result is the outcome of a [Fetch].
type Result struct {
	Fetch
	Records []models.ReadingSession
	Total   int
	Err     error
}

// State is an immutable snapshot of the browser for presentation.
type State struct {
	OwnerID      string
	Records      []models.ReadingSession
	Status       Status
	ErrorMessage string
	Page         int
	PageSize     int
	Total        int
	TotalPages   int
	// TotalKnown is false until the first successful fetch for the current owner.
	TotalKnown bool
}

func (s State) HasNext() bool     { return s.Page < s.TotalPages }
func (s State) HasPrevious() bool { return s.Page > 1 }

// Empty reports a successful fetch for an owner without sessions.
func (s State) Empty() bool {
	return s.Status == Success && s.TotalKnown && s.Total == 0
}

// Controller is the pagination state machine of the session browser.
//
// Every owner or page change returns the [Fetch] to run; the caller runs it (see [Query.Run]) and
// hands the [Result] back to [Controller.Apply]. Only the result of the latest fetch is applied.
type Controller struct {
	pageSize int
	seq      uint64

	owner      string
	page       int
	total      int
	totalKnown bool
	totalPages int
	records    []models.ReadingSession
	status     Status
	errMsg     string
}

// NewController creates an idle controller on page 1. A non-positive page size falls back to [DefaultPageSize].
func NewController(pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{pageSize: pageSize, page: 1, status: Idle}
}

// SetOwner switches the browser to another reader.
//
// A new owner resets to page 1, drops the loaded records and issues a fetch. An empty owner returns the
// controller to Idle without fetching. Setting the current owner again does nothing.
func (c *Controller) SetOwner(ownerID string) (Fetch, bool) {
	if ownerID == c.owner {
		return Fetch{}, false
	}

	c.owner = ownerID
	c.page = 1
	c.records = nil
	c.total = 0
	c.totalKnown = false
	c.totalPages = 0
	c.errMsg = ""

	if ownerID == "" {
		// invalidate anything still in flight for the previous owner
		c.seq++
		c.status = Idle
		return Fetch{}, false
	}

	return c.issue(), true
}

// Next moves to the following page when there is one.
func (c *Controller) Next() (Fetch, bool) {
	if c.owner == "" || c.page >= c.totalPages {
		return Fetch{}, false
	}
	c.page++
	return c.issue(), true
}

// Previous moves to the preceding page when the current page is not the first.
func (c *Controller) Previous() (Fetch, bool) {
	if c.owner == "" || c.page <= 1 {
		return Fetch{}, false
	}
	c.page--
	return c.issue(), true
}

// GoTo moves to page n when 1 <= n <= total pages.
func (c *Controller) GoTo(n int) (Fetch, bool) {
	if c.owner == "" || n < 1 || n > c.totalPages {
		return Fetch{}, false
	}
	c.page = n
	return c.issue(), true
}

// Reload fetches the current page again, e.g. to retry after an error.
func (c *Controller) Reload() (Fetch, bool) {
	if c.owner == "" {
		return Fetch{}, false
	}
	return c.issue(), true
}

func (c *Controller) issue() Fetch {
	c.seq++
	c.status = Loading
	c.errMsg = ""
	return Fetch{Seq: c.seq, OwnerID: c.owner, Page: c.page}
}

// Apply stores the result of the latest fetch and reports whether it was applied.
//
// Results of superseded fetches, or fetches for another owner, are discarded.
func (c *Controller) Apply(r Result) bool {
	if !c.Pending(r.Fetch) {
		return false
	}

	if r.Err != nil {
		c.records = nil
		c.total = 0
		c.totalKnown = false
		c.totalPages = 0
		c.errMsg = ErrorMessage(r.Err)
		c.status = Error
		return true
	}

	c.records = slices.Clone(r.Records)
	if c.records == nil {
		c.records = []models.ReadingSession{}
	}
	c.total = r.Total
	c.totalKnown = true
	c.totalPages = TotalPages(r.Total, c.pageSize)
	c.errMsg = ""
	c.status = Success
	return true
}

// Pending reports whether f is the fetch the controller is waiting for.
func (c *Controller) Pending(f Fetch) bool {
	return c.status == Loading && f.Seq == c.seq && f.OwnerID == c.owner
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return State{
		OwnerID:      c.owner,
		Records:      slices.Clone(c.records),
		Status:       c.status,
		ErrorMessage: c.errMsg,
		Page:         c.page,
		PageSize:     c.pageSize,
		Total:        c.total,
		TotalPages:   c.totalPages,
		TotalKnown:   c.totalKnown,
	}
}
