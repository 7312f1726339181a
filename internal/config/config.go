package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror polite-crawler conventions: shallow depth, a small retry
// budget, and a pause between requests.
const (
	// DefaultMaxDepth of 1 crawls the seed page and the pages it links
	// to. Depth 0 means only the seed. Deep crawls are opt-in via the
	// --max-depth flag because every extra level multiplies load on the
	// target site.
	DefaultMaxDepth = 1

	// DefaultMaxAttempts of 2 gives each page one retry after a
	// transient failure. More attempts rarely help a page that failed
	// twice, and they slow the whole crawl down.
	DefaultMaxAttempts = 2

	// DefaultCrawlDelay is the politeness pause before each request.
	// 100ms keeps a single-site crawl gentle without making small
	// crawls tediously slow. Can be adjusted via --delay.
	DefaultCrawlDelay = 100 * time.Millisecond

	// DefaultTimeout bounds one HTTP request end to end. 5 seconds is
	// generous for a healthy site; a slower response is treated as a
	// transient failure and retried.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent identifies wordcrawl in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/wordcrawl/wordcrawl)"

	// DefaultMaxBodySize limits the response body size to read.
	// 10MB covers any reasonable HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTopWords is how many of the highest word counts the report
	// shows.
	DefaultTopWords = 50

	// AppName is the application name used for XDG directory paths.
	AppName = "wordcrawl"
)

// Config holds all configuration options for wordcrawl.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested
// structs (e.g., CrawlConfig, ReportConfig) for simplicity. The number
// of options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// SeedURL is the absolute http(s) URL the crawl starts from. Its
	// host and path prefix define the crawl boundary.
	SeedURL string

	// Workdir is the working directory holding all crawl state:
	// the lock file, state.db, artifacts, and reports. When empty,
	// a per-site directory under the XDG data home is used.
	Workdir string

	// MaxDepth is the maximum link distance from the seed.
	// Depth 0 means only the seed page.
	MaxDepth int

	// MaxAttempts is how many times a page is fetched before a
	// transient failure becomes permanent.
	MaxAttempts int

	// CrawlDelay is the politeness pause before each request.
	CrawlDelay time.Duration

	// Timeout is the end-to-end bound for one HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors reach the console.
	Verbose bool

	// Purge wipes the working directory's crawl state before starting,
	// turning a resume into a fresh crawl. Destructive.
	Purge bool

	// ConfigFilePath is the path to the YAML settings file. If empty,
	// the tool searches for .wordcrawl in the current directory, the
	// home directory, and the XDG config directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the settings
	// file, keyed by host.
	SiteConfigs *File

	// JSONReport emits the report as JSON instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the report as GitHub Flavored Markdown with
	// tables and a status pie chart. Mutually exclusive with
	// JSONReport.
	MarkdownReport bool

	// ReportFile is the output path for the report subcommand. When
	// empty, the report goes to stdout.
	ReportFile string

	// TopWords is how many of the highest word counts the report
	// includes.
	TopWords int
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout,
// delay). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		MaxAttempts: DefaultMaxAttempts,
		CrawlDelay:  DefaultCrawlDelay,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		TopWords:    DefaultTopWords,
	}
}

// XDGDataDir returns the XDG data directory for wordcrawl.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/wordcrawl
// On macOS: ~/Library/Application Support/wordcrawl
// On Windows: %LOCALAPPDATA%\wordcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wordcrawl.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/wordcrawl
// On macOS: ~/Library/Application Support/wordcrawl
// On Windows: %APPDATA%\wordcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// WorkdirForSeed returns the default working directory for a seed URL:
// a directory named after the seed's host under the XDG data home.
// Crawls of different sites never share state by accident.
func WorkdirForSeed(seedURL string) (string, error) {
	u, err := url.Parse(seedURL)
	if err != nil || u.Host == "" {
		return "", ErrInvalidSeed
	}
	return filepath.Join(XDGDataDir(), u.Host), nil
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeed
	}

	// The seed must be absolute http(s): the crawl boundary is derived
	// from its host and path.
	u, err := url.Parse(c.SeedURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidSeed
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// At least one attempt per page, or nothing would ever be fetched.
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// Timeout must be positive; zero timeout would cause immediate failures.
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive.
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
