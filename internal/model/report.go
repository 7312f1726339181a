package model

import "time"

// CrawlReport is the aggregated view of a crawl that report writers render.
// All of it is derived from the state database and the working directory;
// generating a report never mutates crawl state.
//
// Design decision: We snapshot everything into one struct rather than have
// writers query the database because:
// 1. Writers stay pure formatting code that is trivial to test
// 2. One consistent read produces one consistent report
// 3. The same snapshot feeds the text, JSON, and Markdown writers
type CrawlReport struct {
	// Session identifies the crawl the report describes.
	Session Session `json:"session"`

	// Workdir is the working directory the crawl ran in.
	Workdir string `json:"workdir"`

	// MaxAttempts is the retry budget the crawl ran with.
	MaxAttempts int `json:"max_attempts"`

	// GeneratedAt is when the report snapshot was taken.
	GeneratedAt time.Time `json:"generated_at"`

	// Queued, Visited, and Failed are the frontier status counts.
	Queued  int `json:"queued"`
	Visited int `json:"visited"`
	Failed  int `json:"failed"`

	// Files counts the artifacts present on disk per artifact directory.
	Files FileCounts `json:"files"`

	// Attempts summarizes the per-attempt audit log.
	Attempts AttemptStats `json:"attempts"`

	// Errors tallies failure messages across the frontier,
	// most frequent first.
	Errors []ErrorCount `json:"errors,omitempty"`

	// TopWords holds the highest word counts, count descending and
	// ties by word ascending.
	TopWords []WordCount `json:"top_words,omitempty"`

	// DistinctWords is the total number of distinct words tallied.
	DistinctWords int `json:"distinct_words"`
}

// Complete reports whether the frontier has been fully drained.
// A complete crawl has no queued pages left; every discovered URL
// ended visited or failed.
func (r *CrawlReport) Complete() bool {
	return r.Queued == 0
}

// TotalPages returns the number of URLs ever discovered.
func (r *CrawlReport) TotalPages() int {
	return r.Queued + r.Visited + r.Failed
}

// WordCount is one entry of the word tally.
type WordCount struct {
	// Word is the folded token.
	Word string `json:"word"`

	// Count is how many times the word occurred across all visited pages.
	Count int `json:"count"`
}

// ErrorCount groups failed pages by their error message.
type ErrorCount struct {
	// Message is the recorded error message.
	Message string `json:"message"`

	// Count is the number of pages that failed with this message.
	Count int `json:"count"`
}

// FileCounts counts artifacts written to the working directory.
type FileCounts struct {
	// Pages is the number of raw page artifacts under pages/.
	Pages int `json:"pages"`

	// Texts is the number of extracted text artifacts under text/.
	Texts int `json:"texts"`

	// Words is the number of per-page word count artifacts under words/.
	Words int `json:"words"`
}

// AttemptStats summarizes the attempt audit log.
type AttemptStats struct {
	// Total is the number of fetch attempts recorded across all runs.
	Total int `json:"total"`

	// MeanPerPage is the mean number of attempts per attempted page.
	MeanPerPage float64 `json:"mean_per_page"`

	// MeanDuration is the mean duration of a single fetch attempt.
	MeanDuration time.Duration `json:"mean_duration"`
}

// NewCrawlReport creates an empty report snapshot for the given session.
func NewCrawlReport(session Session, workdir string) *CrawlReport {
	return &CrawlReport{
		Session:     session,
		Workdir:     workdir,
		GeneratedAt: time.Now(),
	}
}
