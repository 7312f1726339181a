package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunFileName is the run parameter file written into every working
// directory.
const RunFileName = "config.json"

// RunFile captures the parameters a working directory was created with.
// On resume, parameters not set explicitly on the command line are
// restored from this file, so a crawl continues the way it started.
//
// The seed URL and max depth recorded here are informational: the
// session row in state.db is the authority that rejects a mismatched
// resume.
type RunFile struct {
	// SeedURL is the crawl's starting URL.
	SeedURL string `json:"seed_url"`

	// MaxDepth is the link distance limit the crawl started with.
	MaxDepth int `json:"max_depth"`

	// MaxAttempts is the per-page attempt budget.
	MaxAttempts int `json:"max_attempts"`

	// CrawlDelay is the politeness pause, as a Go duration string.
	CrawlDelay string `json:"crawl_delay"`

	// Timeout is the per-request bound, as a Go duration string.
	Timeout string `json:"timeout"`

	// UserAgent is the User-Agent header the crawl identifies with.
	UserAgent string `json:"user_agent"`

	// CreatedAt is when the working directory was first used.
	CreatedAt time.Time `json:"created_at"`
}

// WriteRunFile records the config's run parameters into workdir. An
// existing file is left untouched so the original parameters survive
// resumes.
func (c *Config) WriteRunFile(workdir string) error {
	path := filepath.Join(workdir, RunFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	rf := RunFile{
		SeedURL:     c.SeedURL,
		MaxDepth:    c.MaxDepth,
		MaxAttempts: c.MaxAttempts,
		CrawlDelay:  c.CrawlDelay.String(),
		Timeout:     c.Timeout.String(),
		UserAgent:   c.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run parameters: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write run parameters: %w", err)
	}
	return nil
}

// ReadRunFile loads the run parameters recorded in workdir. It returns
// nil without error when the file does not exist, which is the case for
// a fresh working directory.
func ReadRunFile(workdir string) (*RunFile, error) {
	data, err := os.ReadFile(filepath.Join(workdir, RunFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run parameters: %w", err)
	}

	var rf RunFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse run parameters: %w", err)
	}
	return &rf, nil
}

// Durations parses the stored delay and timeout strings. Unparseable
// values fall back to the defaults rather than failing a resume over a
// hand-edited file.
func (rf *RunFile) Durations() (delay, timeout time.Duration) {
	delay = DefaultCrawlDelay
	if d, err := time.ParseDuration(rf.CrawlDelay); err == nil && d >= 0 {
		delay = d
	}
	timeout = DefaultTimeout
	if d, err := time.ParseDuration(rf.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return delay, timeout
}
