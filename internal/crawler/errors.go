package crawler

import (
	"fmt"
	"time"
)

// FailKind tags a fetch failure as retryable or not.
type FailKind int

// Fetch failure kinds.
const (
	// FailTransient marks failures worth retrying: network timeouts,
	// connection errors, and HTTP 429/500/502/503/504.
	FailTransient FailKind = iota

	// FailPermanent marks failures that will not improve on retry:
	// HTTP 403/404/501 and unsupported content types.
	FailPermanent
)

// FetchError is a failed fetch outcome, tagged with whether retrying
// could help. The retry policy branches on the tag alone; everything
// else here is for messages and the audit log.
type FetchError struct {
	// Kind says whether the failure is worth retrying.
	Kind FailKind

	// StatusCode is the HTTP status received, or 0 when the request
	// never produced a response.
	StatusCode int

	// RetryAfter is the delay requested by the server via the
	// Retry-After header, or 0 when the server didn't send one.
	RetryAfter time.Duration

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface. The message is kept stable per
// failure cause so the report can group failures by message.
func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err == nil:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case e.Err != nil && e.Kind == FailTransient:
		return fmt.Sprintf("connection error: %v", e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "fetch failed"
	}
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying could help.
func (e *FetchError) Transient() bool {
	return e.Kind == FailTransient
}

// UnsupportedContentTypeError is a permanent fetch outcome for responses
// the crawler cannot process (anything but HTML and plain text).
type UnsupportedContentTypeError struct {
	// ContentType is the media type the server sent.
	ContentType string
}

// Error implements the error interface.
func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

// ParseError is a permanent failure to parse a fetched page.
type ParseError struct {
	// URL is the page that failed to parse.
	URL string

	// Err is the parser's error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError is a failure to write a page's artifacts. It fails the
// page, never the run: the crawl moves on to the next queued page.
type StorageError struct {
	// Path is the artifact path that could not be written.
	Path string

	// Err is the filesystem error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact write failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}
