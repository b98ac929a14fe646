// Package pager implements the paginated session browser: a range query over one reader's sessions
// and the state controller that drives it.
//
// [Query] turns a page number into an inclusive row range, issues exactly one range read and validates
// the response before it reaches the controller.
//
// [Controller] owns the browser state (records, status, page, total pages) and hands out [Fetch]
// requests for every owner or page change. Fetches run elsewhere (a bubbletea command, a request
// handler) and come back as a [Result], which [Controller.Apply] accepts only when it answers the most
// recently issued fetch for the current owner. Superseded fetches are never canceled; their results
// are dropped.
//
// The controller is not safe for concurrent use. It is meant to be mutated from a single event loop.
package pager
