package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/state"
)

// setupCollectStore creates a state store in a temporary directory.
func setupCollectStore(t *testing.T) *state.Store {
	t.Helper()

	store, err := state.Open(t.TempDir(), state.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// seedCollectStore populates a store with a small finished crawl: two
// visited pages, one failed page, and two logged attempts.
func seedCollectStore(t *testing.T, store *state.Store) {
	t.Helper()
	ctx := context.Background()

	if _, _, err := store.EstablishOrValidateSession(ctx, "https://example.com", 1); err != nil {
		t.Fatalf("failed to establish session: %v", err)
	}

	for url, depth := range map[string]int{
		"https://example.com":   0,
		"https://example.com/a": 1,
		"https://example.com/b": 1,
	} {
		if _, err := store.Enqueue(ctx, url, depth); err != nil {
			t.Fatalf("failed to enqueue %s: %v", url, err)
		}
	}

	if err := store.MarkVisited(ctx, "https://example.com", map[string]int{"marmalade": 2, "porridge": 3}); err != nil {
		t.Fatalf("failed to mark visited: %v", err)
	}
	if err := store.MarkVisited(ctx, "https://example.com/a", map[string]int{"porridge": 1}); err != nil {
		t.Fatalf("failed to mark visited: %v", err)
	}
	if err := store.MarkFailed(ctx, "https://example.com/b", "HTTP 404"); err != nil {
		t.Fatalf("failed to mark failed: %v", err)
	}

	attempts := []state.Attempt{
		{RunID: "run-1", URL: "https://example.com", Depth: 0, Attempt: 1, StatusCode: 200, Duration: 100 * time.Millisecond},
		{RunID: "run-1", URL: "https://example.com/b", Depth: 1, Attempt: 1, StatusCode: 404, Duration: 50 * time.Millisecond, Error: "HTTP 404"},
	}
	for _, a := range attempts {
		if err := store.LogAttempt(ctx, a); err != nil {
			t.Fatalf("failed to log attempt: %v", err)
		}
	}
}

// fakeFiles is a FileCounter with fixed counts.
type fakeFiles struct {
	pages, texts, words int
}

func (f fakeFiles) PageCount() (int, error)  { return f.pages, nil }
func (f fakeFiles) TextCount() (int, error)  { return f.texts, nil }
func (f fakeFiles) WordsCount() (int, error) { return f.words, nil }

// errWalkFailed is the error failingFiles returns.
var errWalkFailed = errors.New("walk failed")

// failingFiles is a FileCounter whose first count fails.
type failingFiles struct{}

func (failingFiles) PageCount() (int, error)  { return 0, errWalkFailed }
func (failingFiles) TextCount() (int, error)  { return 0, nil }
func (failingFiles) WordsCount() (int, error) { return 0, nil }

// TestCollect tests snapshot assembly from the state database.
func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("collects full snapshot", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{
			Workdir:     "/data/wordcrawl/example.com",
			MaxAttempts: 2,
			TopWords:    50,
			Files:       fakeFiles{pages: 2, texts: 2, words: 2},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Session.SeedURL != "https://example.com" {
			t.Errorf("expected seed URL from session, got %q", report.Session.SeedURL)
		}
		if report.MaxAttempts != 2 {
			t.Errorf("expected max attempts 2, got %d", report.MaxAttempts)
		}
		if report.Visited != 2 || report.Failed != 1 || report.Queued != 0 {
			t.Errorf("unexpected status counts: visited=%d failed=%d queued=%d",
				report.Visited, report.Failed, report.Queued)
		}
		if !report.Complete() {
			t.Error("expected drained frontier to report complete")
		}
		if report.Files.Pages != 2 || report.Files.Texts != 2 || report.Files.Words != 2 {
			t.Errorf("unexpected file counts: %+v", report.Files)
		}
	})

	t.Run("summarizes attempts", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Attempts.Total != 2 {
			t.Errorf("expected 2 attempts, got %d", report.Attempts.Total)
		}
		if report.Attempts.MeanPerPage != 1.0 {
			t.Errorf("expected mean 1.0 attempts per page, got %f", report.Attempts.MeanPerPage)
		}
		if report.Attempts.MeanDuration != 75*time.Millisecond {
			t.Errorf("expected mean duration 75ms, got %s", report.Attempts.MeanDuration)
		}
	})

	t.Run("tallies errors and words", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.Errors) != 1 || report.Errors[0].Message != "HTTP 404" || report.Errors[0].Count != 1 {
			t.Errorf("unexpected error tally: %+v", report.Errors)
		}

		want := []model.WordCount{
			{Word: "porridge", Count: 4},
			{Word: "marmalade", Count: 2},
		}
		if len(report.TopWords) != len(want) {
			t.Fatalf("expected %d top words, got %d", len(want), len(report.TopWords))
		}
		for i, wc := range want {
			if report.TopWords[i] != wc {
				t.Errorf("top word %d: expected %+v, got %+v", i, wc, report.TopWords[i])
			}
		}
		if report.DistinctWords != 2 {
			t.Errorf("expected 2 distinct words, got %d", report.DistinctWords)
		}
	})

	t.Run("limits top words", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{TopWords: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.TopWords) != 1 {
			t.Fatalf("expected 1 top word, got %d", len(report.TopWords))
		}
		if report.TopWords[0].Word != "porridge" {
			t.Errorf("expected highest count first, got %q", report.TopWords[0].Word)
		}
	})

	t.Run("defaults top words when not set", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// A zero limit must not truncate the tally to nothing.
		if len(report.TopWords) != 2 {
			t.Errorf("expected 2 top words with default limit, got %d", len(report.TopWords))
		}
	})

	t.Run("returns ErrNoSession for fresh directory", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)

		_, err := Collect(context.Background(), store, CollectOptions{Workdir: "/tmp/fresh"})
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("nil file counter leaves counts zero", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		report, err := Collect(context.Background(), store, CollectOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Files != (model.FileCounts{}) {
			t.Errorf("expected zero file counts, got %+v", report.Files)
		}
	})

	t.Run("file counter failure surfaces", func(t *testing.T) {
		t.Parallel()

		store := setupCollectStore(t)
		seedCollectStore(t, store)

		_, err := Collect(context.Background(), store, CollectOptions{Files: failingFiles{}})
		if !errors.Is(err, errWalkFailed) {
			t.Errorf("expected wrapped walk error, got %v", err)
		}
	})
}
