package state

import "errors"

// Store sentinel errors.
var (
	// ErrNotQueued is returned when a lifecycle transition targets a page
	// that is not in the queued state. Visited and failed are terminal, so
	// a second transition is always a caller bug or a lost race with
	// another worker, never something to apply.
	ErrNotQueued = errors.New("page is not queued")
)
