package crawler

import (
	"errors"
	"math/rand"
	"time"
)

// Default retry policy settings.
const (
	// DefaultMaxAttempts is how many times a page is fetched before a
	// transient failure becomes permanent.
	DefaultMaxAttempts = 2

	// DefaultBaseDelay seeds the exponential backoff schedule.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps a single backoff sleep, including delays
	// requested by the server via Retry-After.
	DefaultMaxDelay = 30 * time.Second
)

// ReasonMaxAttempts is the terminal failure reason recorded when a page
// exhausts its retry budget.
const ReasonMaxAttempts = "max attempts reached"

// Action is what the crawl loop should do with a page after an attempt.
type Action int

// Verdict actions.
const (
	// ActionSuccess records the page as visited.
	ActionSuccess Action = iota

	// ActionRetryNow leaves the page queued and moves on without
	// sleeping. Produced when the computed backoff is zero.
	ActionRetryNow

	// ActionRetryLater leaves the page queued and asks the loop to
	// sleep for Verdict.Delay first.
	ActionRetryLater

	// ActionFail records the page as permanently failed.
	ActionFail
)

// Verdict is a retry decision for one finished attempt.
type Verdict struct {
	// Action is what to do with the page.
	Action Action

	// Delay is how long to wait before the next attempt. Set only for
	// ActionRetryLater.
	Delay time.Duration

	// Reason is the terminal failure reason. Set only for ActionFail.
	Reason string
}

// RetryPolicy decides what happens to a page after each fetch attempt.
//
// Design decision: Classify is a pure function of the error and the
// attempt count because:
//  1. The decision table can be tested exhaustively without a server,
//     a database, or a clock.
//  2. The crawl loop stays a thin mechanical layer: pop, fetch,
//     classify, apply.
//  3. Backoff arithmetic lives in exactly one place.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// PolicyOption configures a RetryPolicy.
type PolicyOption func(*RetryPolicy)

// WithBaseDelay sets the first backoff delay. Each further attempt
// doubles it.
func WithBaseDelay(d time.Duration) PolicyOption {
	return func(p *RetryPolicy) {
		p.baseDelay = d
	}
}

// WithMaxDelay caps a single backoff sleep.
func WithMaxDelay(d time.Duration) PolicyOption {
	return func(p *RetryPolicy) {
		p.maxDelay = d
	}
}

// NewRetryPolicy creates a retry policy allowing maxAttempts fetches per
// page. Values below 1 are raised to 1.
func NewRetryPolicy(maxAttempts int, opts ...PolicyOption) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	p := &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the per-page attempt budget.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Classify turns the outcome of a fetch attempt into a verdict.
// attempts counts all fetches of the page so far, including the one
// that just finished.
//
// A nil error is a success. A transient failure retries with backoff
// until the attempt budget is spent, then fails with ReasonMaxAttempts.
// Everything else fails immediately with the error's message as the
// reason.
func (p *RetryPolicy) Classify(err error, attempts int) Verdict {
	if err == nil {
		return Verdict{Action: ActionSuccess}
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Transient() {
		if attempts >= p.maxAttempts {
			return Verdict{Action: ActionFail, Reason: ReasonMaxAttempts}
		}
		delay := p.backoff(attempts, fe.RetryAfter)
		if delay <= 0 {
			return Verdict{Action: ActionRetryNow}
		}
		return Verdict{Action: ActionRetryLater, Delay: delay}
	}
	return Verdict{Action: ActionFail, Reason: err.Error()}
}

// backoff computes the sleep before the next attempt. A Retry-After
// delay from the server takes precedence over the exponential schedule;
// both are capped at maxDelay. The exponential delay is jittered to
// half-to-full of its nominal value so synchronized crawlers don't
// hammer a recovering server in lockstep.
func (p *RetryPolicy) backoff(attempts int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, p.maxDelay)
	}
	delay := p.baseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= p.maxDelay || delay <= 0 {
			delay = p.maxDelay
			break
		}
	}
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	if delay <= 0 {
		return 0
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(delay-half+1)))
}
