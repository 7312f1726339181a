package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/state"
	"github.com/wordcrawl/wordcrawl/internal/wordcount"
)

// Default crawl settings.
const (
	// DefaultMaxDepth limits how many link hops from the seed are
	// followed. 0 means only the seed page.
	DefaultMaxDepth = 1

	// DefaultDelay is the politeness pause before each fetch.
	DefaultDelay = 100 * time.Millisecond
)

// WordCounter tallies the words of a page's visible text.
type WordCounter interface {
	// Count returns fold-case word frequencies for text.
	Count(text string) map[string]int
}

// ArtifactStore persists the downloaded body, extracted text, and
// per-page word counts of a visited page.
type ArtifactStore interface {
	// SavePage writes the raw response body.
	SavePage(pageURL string, body []byte) error

	// SaveText writes the extracted visible text.
	SaveText(pageURL string, text string) error

	// SaveWordCounts writes the page's word tally.
	SaveWordCounts(pageURL string, counts map[string]int) error
}

// Spider runs the crawl loop: pop the shallowest queued page, fetch it,
// classify the outcome, and apply the verdict to the store. All crawl
// state lives in the store, so a killed spider resumes exactly where it
// stopped.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// store holds the frontier, the word tally, and the attempt log.
	store *state.Store

	// scope is the crawl boundary derived from the seed URL.
	scope *Scope

	// fetcher downloads pages.
	fetcher Fetcher

	// extractor parses HTML into links and visible text.
	extractor Extractor

	// counter tallies words from extracted text.
	counter WordCounter

	// artifacts persists page bodies, text, and per-page tallies.
	// When nil, no artifacts are written.
	artifacts ArtifactStore

	// policy decides retries after each attempt.
	policy *RetryPolicy

	// logger receives structured progress and failure events.
	logger *slog.Logger

	// runID labels this process run in the attempt audit log.
	runID string

	// maxDepth limits how deep to crawl from the seed.
	maxDepth int

	// delay is the politeness pause before each fetch.
	delay time.Duration
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithFetcher replaces the page fetcher.
func WithFetcher(f Fetcher) SpiderOption {
	return func(s *Spider) {
		s.fetcher = f
	}
}

// WithExtractor replaces the HTML extractor.
func WithExtractor(e Extractor) SpiderOption {
	return func(s *Spider) {
		s.extractor = e
	}
}

// WithWordCounter replaces the word tallier.
func WithWordCounter(c WordCounter) SpiderOption {
	return func(s *Spider) {
		s.counter = c
	}
}

// WithArtifactStore sets where page artifacts are written.
func WithArtifactStore(a ArtifactStore) SpiderOption {
	return func(s *Spider) {
		s.artifacts = a
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p *RetryPolicy) SpiderOption {
	return func(s *Spider) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = seed plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithDelay sets the politeness pause before each fetch.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithRunID overrides the generated run identifier used in the attempt
// audit log.
func WithRunID(id string) SpiderOption {
	return func(s *Spider) {
		if id != "" {
			s.runID = id
		}
	}
}

// NewSpider creates a spider over an open store and a crawl scope.
//
// Design decision: We require the store and scope as parameters rather
// than options because:
//  1. A spider without durable state or a boundary is meaningless
//  2. Everything else has a sensible default
//  3. Allows for different configurations in tests
func NewSpider(store *state.Store, scope *Scope, opts ...SpiderOption) *Spider {
	s := &Spider{
		store:     store,
		scope:     scope,
		fetcher:   NewHTTPFetcher(),
		extractor: NewHTMLExtractor(),
		counter:   wordcount.NewCounter(),
		policy:    NewRetryPolicy(DefaultMaxAttempts),
		logger:    slog.Default(),
		runID:     uuid.NewString(),
		maxDepth:  DefaultMaxDepth,
		delay:     DefaultDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RunID returns the identifier this spider writes to the attempt audit
// log.
func (s *Spider) RunID() string {
	return s.runID
}

// RunStats summarizes one spider run.
type RunStats struct {
	// Visited is the number of pages recorded as visited this run.
	Visited int

	// Failed is the number of pages recorded as permanently failed
	// this run.
	Failed int

	// Retried is the number of attempts that ended in a retry verdict.
	Retried int

	// Attempts is the total number of fetch attempts this run.
	Attempts int
}

// Run drains the frontier. It returns when no queued pages remain, the
// context is canceled, or the store fails. Page-level failures never
// stop the run; they are recorded and the loop moves on.
func (s *Spider) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		page, err := s.store.NextQueued(ctx)
		if err != nil {
			return stats, fmt.Errorf("pop frontier: %w", err)
		}
		if page == nil {
			s.logger.Info("frontier drained, crawl complete",
				"visited", stats.Visited, "failed", stats.Failed)
			return stats, nil
		}

		if s.delay > 0 {
			if err := s.pause(ctx, s.delay); err != nil {
				return stats, err
			}
		}

		if err := s.crawlPage(ctx, page, stats); err != nil {
			return stats, err
		}
	}
}

// crawlPage runs one fetch attempt against a popped page and applies
// the retry verdict. A returned error aborts the whole run and is
// reserved for store failures and shutdown; page outcomes are consumed
// here.
func (s *Spider) crawlPage(ctx context.Context, page *model.Page, stats *RunStats) error {
	attempt := page.Attempts + 1

	start := time.Now()
	res, err := s.fetcher.Fetch(ctx, page.URL)
	duration := time.Since(start)

	// The fetcher reports shutdown as a bare context error rather than
	// a tagged fetch failure.
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			return err
		}
	}

	var extraction *Extraction
	var counts map[string]int
	procErr := err
	if procErr == nil {
		extraction, counts, procErr = s.process(page.URL, res)
	}

	stats.Attempts++
	s.logAttempt(ctx, page, attempt, res, duration, procErr)

	verdict := s.policy.Classify(procErr, attempt)
	switch verdict.Action {
	case ActionSuccess:
		return s.finishVisit(ctx, page, extraction, counts, stats)

	case ActionRetryNow, ActionRetryLater:
		stats.Retried++
		s.logger.Warn("attempt failed, page stays queued",
			"url", page.URL, "attempt", attempt, "delay", verdict.Delay, "error", procErr)
		if err := s.store.RecordAttempt(ctx, page.URL, procErr.Error(), true); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		if verdict.Delay > 0 {
			if err := s.pause(ctx, verdict.Delay); err != nil {
				return err
			}
		}

	case ActionFail:
		stats.Failed++
		s.logger.Warn("page failed permanently",
			"url", page.URL, "attempts", attempt, "reason", verdict.Reason)
		if err := s.store.RecordAttempt(ctx, page.URL, procErr.Error(), false); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		if err := s.store.MarkFailed(ctx, page.URL, verdict.Reason); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
	}

	return nil
}

// process turns a fetched body into an extraction, a word tally, and
// saved artifacts. HTML goes through the extractor; anything else the
// fetcher admitted is tallied as plain text.
func (s *Spider) process(pageURL string, res *FetchResult) (*Extraction, map[string]int, error) {
	var extraction *Extraction
	var text string
	if res.HTML() {
		ex, err := s.extractor.Extract(pageURL, res.Body)
		if err != nil {
			return nil, nil, err
		}
		extraction = ex
		text = ex.Text
	} else {
		text = string(res.Body)
	}

	counts := s.counter.Count(text)

	if s.artifacts != nil {
		if err := s.artifacts.SavePage(pageURL, res.Body); err != nil {
			return nil, nil, &StorageError{Err: err}
		}
		if err := s.artifacts.SaveText(pageURL, text); err != nil {
			return nil, nil, &StorageError{Err: err}
		}
		if err := s.artifacts.SaveWordCounts(pageURL, counts); err != nil {
			return nil, nil, &StorageError{Err: err}
		}
	}

	return extraction, counts, nil
}

// finishVisit enqueues in-scope links and records the page as visited.
// Links go in first: if the process dies between the two steps, the
// page is refetched on resume and re-enqueueing is a no-op, whereas the
// opposite order could lose links forever.
func (s *Spider) finishVisit(ctx context.Context, page *model.Page, extraction *Extraction, counts map[string]int, stats *RunStats) error {
	discovered := 0
	if extraction != nil && page.Depth < s.maxDepth {
		for _, link := range extraction.Links {
			normalized, err := Normalize(link)
			if err != nil {
				continue
			}
			if !s.scope.Allows(normalized) || !s.scope.Crawlable(normalized) {
				continue
			}
			added, err := s.store.Enqueue(ctx, normalized, page.Depth+1)
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", normalized, err)
			}
			if added {
				discovered++
			}
		}
	}

	if err := s.store.MarkVisited(ctx, page.URL, counts); err != nil {
		return fmt.Errorf("mark visited: %w", err)
	}

	stats.Visited++
	s.logger.Info("page visited",
		"url", page.URL, "depth", page.Depth, "links", discovered, "words", len(counts))
	return nil
}

// logAttempt appends one row to the attempt audit log. Audit writes are
// best effort: a failure is logged and the crawl continues, since the
// page tables already hold the authoritative state.
func (s *Spider) logAttempt(ctx context.Context, page *model.Page, attempt int, res *FetchResult, duration time.Duration, procErr error) {
	a := state.Attempt{
		RunID:    s.runID,
		URL:      page.URL,
		Depth:    page.Depth,
		Attempt:  attempt,
		Duration: duration,
	}
	if res != nil {
		a.StatusCode = res.StatusCode
	} else {
		var fe *FetchError
		if errors.As(procErr, &fe) {
			a.StatusCode = fe.StatusCode
		}
	}
	if procErr != nil {
		a.Error = procErr.Error()
	}

	if err := s.store.LogAttempt(ctx, a); err != nil {
		s.logger.Warn("attempt audit write failed", "url", page.URL, "error", err)
	}
}

// pause sleeps for d or until the context is canceled.
func (s *Spider) pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
