package crawler

import (
	"errors"
	"testing"
	"time"
)

// TestRetryPolicyClassify tests the retry decision table.
func TestRetryPolicyClassify(t *testing.T) {
	t.Parallel()

	transient := func(status int) error {
		return &FetchError{Kind: FailTransient, StatusCode: status}
	}

	tests := []struct {
		name       string
		err        error
		attempts   int
		wantAction Action
		wantReason string
	}{
		{
			name:       "nil error is a success",
			err:        nil,
			attempts:   1,
			wantAction: ActionSuccess,
		},
		{
			name:       "transient below budget retries",
			err:        transient(503),
			attempts:   1,
			wantAction: ActionRetryLater,
		},
		{
			name:       "transient at budget fails",
			err:        transient(503),
			attempts:   2,
			wantAction: ActionFail,
			wantReason: "max attempts reached",
		},
		{
			name:       "transient past budget fails",
			err:        transient(500),
			attempts:   5,
			wantAction: ActionFail,
			wantReason: "max attempts reached",
		},
		{
			name:       "connection error retries",
			err:        &FetchError{Kind: FailTransient, Err: errors.New("dial tcp: connection refused")},
			attempts:   1,
			wantAction: ActionRetryLater,
		},
		{
			name:       "permanent status fails immediately",
			err:        &FetchError{Kind: FailPermanent, StatusCode: 404},
			attempts:   1,
			wantAction: ActionFail,
			wantReason: "HTTP 404",
		},
		{
			name: "unsupported content type fails immediately",
			err: &FetchError{
				Kind:       FailPermanent,
				StatusCode: 200,
				Err:        &UnsupportedContentTypeError{ContentType: "image/png"},
			},
			attempts:   1,
			wantAction: ActionFail,
			wantReason: `unsupported content type "image/png"`,
		},
		{
			name:       "parse failure fails immediately",
			err:        &ParseError{URL: "http://example.com", Err: errors.New("bad markup")},
			attempts:   1,
			wantAction: ActionFail,
			wantReason: "parse failure: bad markup",
		},
		{
			name:       "artifact write failure fails immediately",
			err:        &StorageError{Err: errors.New("disk full")},
			attempts:   1,
			wantAction: ActionFail,
			wantReason: "artifact write failed: disk full",
		},
	}

	policy := NewRetryPolicy(2)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verdict := policy.Classify(tt.err, tt.attempts)
			if verdict.Action != tt.wantAction {
				t.Errorf("expected action %v, got %v", tt.wantAction, verdict.Action)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, verdict.Reason)
			}
		})
	}
}

// TestRetryPolicyBackoff tests delay computation.
func TestRetryPolicyBackoff(t *testing.T) {
	t.Parallel()

	t.Run("first retry delay is jittered around the base", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, WithBaseDelay(1*time.Second))
		verdict := policy.Classify(&FetchError{Kind: FailTransient, StatusCode: 503}, 1)

		if verdict.Action != ActionRetryLater {
			t.Fatalf("expected retry, got %v", verdict.Action)
		}
		if verdict.Delay < 500*time.Millisecond || verdict.Delay > 1*time.Second {
			t.Errorf("expected delay in [500ms, 1s], got %v", verdict.Delay)
		}
	})

	t.Run("delay doubles per attempt", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, WithBaseDelay(1*time.Second))
		verdict := policy.Classify(&FetchError{Kind: FailTransient, StatusCode: 503}, 3)

		if verdict.Delay < 2*time.Second || verdict.Delay > 4*time.Second {
			t.Errorf("expected delay in [2s, 4s], got %v", verdict.Delay)
		}
	})

	t.Run("delay never exceeds the cap", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(50, WithBaseDelay(1*time.Second), WithMaxDelay(5*time.Second))
		verdict := policy.Classify(&FetchError{Kind: FailTransient, StatusCode: 503}, 40)

		if verdict.Delay > 5*time.Second {
			t.Errorf("expected delay capped at 5s, got %v", verdict.Delay)
		}
	})

	t.Run("retry-after from the server wins over backoff", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, WithBaseDelay(1*time.Second))
		err := &FetchError{Kind: FailTransient, StatusCode: 429, RetryAfter: 7 * time.Second}
		verdict := policy.Classify(err, 1)

		if verdict.Delay != 7*time.Second {
			t.Errorf("expected delay 7s from Retry-After, got %v", verdict.Delay)
		}
	})

	t.Run("retry-after is capped too", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, WithMaxDelay(5*time.Second))
		err := &FetchError{Kind: FailTransient, StatusCode: 429, RetryAfter: 10 * time.Minute}
		verdict := policy.Classify(err, 1)

		if verdict.Delay != 5*time.Second {
			t.Errorf("expected delay capped at 5s, got %v", verdict.Delay)
		}
	})

	t.Run("zero base delay retries without sleeping", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, WithBaseDelay(0))
		verdict := policy.Classify(&FetchError{Kind: FailTransient, StatusCode: 503}, 1)

		if verdict.Action != ActionRetryNow {
			t.Errorf("expected ActionRetryNow, got %v", verdict.Action)
		}
		if verdict.Delay != 0 {
			t.Errorf("expected no delay, got %v", verdict.Delay)
		}
	})
}

// TestNewRetryPolicy tests constructor bounds.
func TestNewRetryPolicy(t *testing.T) {
	t.Parallel()

	if got := NewRetryPolicy(0).MaxAttempts(); got != 1 {
		t.Errorf("expected attempt budget raised to 1, got %d", got)
	}
	if got := NewRetryPolicy(3).MaxAttempts(); got != 3 {
		t.Errorf("expected attempt budget 3, got %d", got)
	}
}
