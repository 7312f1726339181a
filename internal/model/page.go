package model

import "time"

// Status is the lifecycle state of a page in the crawl frontier.
//
// A page enters the frontier as StatusQueued and leaves it by becoming
// StatusVisited or StatusFailed. Both of those states are terminal:
// frontier rows are never deleted and never return to queued, so a
// resumed crawl can trust every recorded outcome.
type Status string

// Page lifecycle states.
const (
	// StatusQueued marks a page that was discovered but not yet resolved.
	// Queued pages may be attempted multiple times before leaving this state.
	StatusQueued Status = "queued"

	// StatusVisited marks a page that was fetched, parsed, and counted.
	StatusVisited Status = "visited"

	// StatusFailed marks a page that was given up on, either after a
	// permanent failure or after the retry budget was exhausted.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether the status is final.
// Terminal pages are never fetched again, even across resumes.
func (s Status) IsTerminal() bool {
	return s == StatusVisited || s == StatusFailed
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusQueued || s == StatusVisited || s == StatusFailed
}

// Page represents one URL in the durable crawl frontier.
//
// Design decision: The page record is the unit of crash recovery. We keep
// everything needed to resume a crawl on the record itself because:
//  1. A killed process must be able to continue from the database alone
//  2. Attempt counters must survive restarts to keep the retry bound exact
//  3. Terminal error messages feed the final report without re-fetching
type Page struct {
	// ID is the database rowid. Insertion order doubles as the FIFO
	// tie-breaker within a depth level.
	ID int64 `json:"id"`

	// URL is the normalized absolute URL. It is the page's identity:
	// the frontier holds at most one row per normalized URL.
	URL string `json:"url"`

	// Depth is the BFS distance from the seed (seed = 0). It is fixed
	// at discovery time and never updated, even if the page is later
	// re-discovered via a shorter path.
	Depth int `json:"depth"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Attempts is the number of fetch attempts made so far.
	Attempts int `json:"attempts"`

	// InsertedAt is when the page entered the frontier.
	InsertedAt time.Time `json:"inserted_at"`

	// LastAttempt is when the page was last fetched.
	// Zero if the page has never been attempted.
	LastAttempt time.Time `json:"last_attempt,omitempty"`

	// Error is the most recent error message.
	// Empty for visited pages and for queued pages that never failed.
	Error string `json:"error,omitempty"`
}
