package forum

import (
	"errors"
	"fmt"
)

// ErrLoginRequired is returned when the forum serves its guest-access page
// instead of the requested content.
var ErrLoginRequired = errors.New("forum requires login for this section")

// FetchError reports a listing or thread retrieval that failed after retry
// exhaustion. Listing fetch failures are fatal to the run; thread content
// fetch failures degrade to empty content at the call site.
type FetchError struct {
	Stage string // "listing" or "thread"
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports listing markup that could not be parsed. It is scoped
// to a single page: the page contributes zero threads and the run continues.
type ParseError struct {
	Page int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse listing page %d: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
