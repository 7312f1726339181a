package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	ErrNoSeed = errors.New("no seed URL specified: provide the URL to start crawling from")

	// ErrInvalidSeed is returned when the seed URL is not an absolute
	// http or https URL. The crawl boundary is derived from the seed,
	// so a relative or non-web URL cannot anchor a crawl.
	ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	// Use 0 to crawl only the seed page.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxAttempts is returned when the attempt budget is below
	// one. Every page needs at least one fetch attempt.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
