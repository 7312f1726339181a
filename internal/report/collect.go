package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/wordcrawl/wordcrawl/internal/config"
	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/state"
)

// ErrNoSession is returned by Collect when the working directory has no
// established crawl session, meaning there is nothing to report on.
var ErrNoSession = errors.New("no crawl session established")

// FileCounter counts the artifacts present in the working directory.
// *contentstore.Store satisfies this interface.
type FileCounter interface {
	// PageCount counts stored raw page artifacts.
	PageCount() (int, error)

	// TextCount counts stored extracted text artifacts.
	TextCount() (int, error)

	// WordsCount counts stored per-page word count artifacts.
	WordsCount() (int, error)
}

// CollectOptions configures what Collect gathers into the snapshot.
type CollectOptions struct {
	// Workdir is the working directory the report describes. It is
	// recorded in the snapshot so writers can render artifact locations.
	Workdir string

	// MaxAttempts is the retry budget the crawl ran with. The session
	// record does not carry it, so the caller passes it through.
	MaxAttempts int

	// TopWords is how many of the highest word counts to include.
	// Values below one fall back to config.DefaultTopWords.
	TopWords int

	// Files counts artifacts on disk. When nil, file counts stay zero.
	Files FileCounter
}

// Collect reads the state database once and assembles the report snapshot
// every writer renders. It never mutates crawl state, so it is safe to run
// against a read-only store while a crawl holds the directory lock.
func Collect(ctx context.Context, st *state.Store, opts CollectOptions) (*model.CrawlReport, error) {
	session, err := st.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w in %s", ErrNoSession, opts.Workdir)
	}

	report := model.NewCrawlReport(*session, opts.Workdir)
	report.MaxAttempts = opts.MaxAttempts

	counts, err := st.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	report.Queued = counts[model.StatusQueued]
	report.Visited = counts[model.StatusVisited]
	report.Failed = counts[model.StatusFailed]

	report.Attempts, err = st.AttemptStats(ctx)
	if err != nil {
		return nil, err
	}

	report.Errors, err = st.ErrorTally(ctx)
	if err != nil {
		return nil, err
	}

	topWords := opts.TopWords
	if topWords < 1 {
		topWords = config.DefaultTopWords
	}
	report.TopWords, err = st.TopWords(ctx, topWords)
	if err != nil {
		return nil, err
	}

	report.DistinctWords, err = st.DistinctWords(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Files != nil {
		if err := collectFileCounts(report, opts.Files); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// collectFileCounts fills in the artifact counts from the working directory.
func collectFileCounts(report *model.CrawlReport, files FileCounter) error {
	var err error

	report.Files.Pages, err = files.PageCount()
	if err != nil {
		return fmt.Errorf("failed to count page artifacts: %w", err)
	}

	report.Files.Texts, err = files.TextCount()
	if err != nil {
		return fmt.Errorf("failed to count text artifacts: %w", err)
	}

	report.Files.Words, err = files.WordsCount()
	if err != nil {
		return fmt.Errorf("failed to count word artifacts: %w", err)
	}

	return nil
}
