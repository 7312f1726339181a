package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

// Attempt is one entry of the fetch audit log. The log is append-only
// and spans every run against the directory, keyed by run ID, so a
// post-mortem can reconstruct exactly what each process did.
type Attempt struct {
	// RunID identifies the crawl process run that made the attempt.
	RunID string

	// URL is the canonical URL that was fetched.
	URL string

	// Depth is the page's BFS depth.
	Depth int

	// Attempt is the attempt ordinal for this URL, starting at 1.
	Attempt int

	// StatusCode is the HTTP status received, or 0 when the request
	// never produced a response.
	StatusCode int

	// Duration is how long the fetch took.
	Duration time.Duration

	// Error is the attempt's error message, empty on success.
	Error string
}

// LogAttempt appends one attempt to the audit log.
func (s *Store) LogAttempt(ctx context.Context, a Attempt) error {
	var statusCode sql.NullInt64
	if a.StatusCode != 0 {
		statusCode = sql.NullInt64{Int64: int64(a.StatusCode), Valid: true}
	}

	var errMsg sql.NullString
	if a.Error != "" {
		errMsg = sql.NullString{String: a.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, url, depth, attempt, status_code, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.URL, a.Depth, a.Attempt, statusCode, a.Duration.Milliseconds(), errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to log attempt on %s: %w", a.URL, err)
	}
	return nil
}

// AttemptStats summarizes the audit log for reporting: total attempts,
// mean attempts per attempted page, and mean fetch duration.
func (s *Store) AttemptStats(ctx context.Context) (model.AttemptStats, error) {
	query := `
	SELECT COUNT(*), COUNT(DISTINCT url), COALESCE(AVG(duration_ms), 0)
	FROM attempts
	`

	var stats model.AttemptStats
	var pages int
	var meanMillis float64

	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Total, &pages, &meanMillis); err != nil {
		return model.AttemptStats{}, fmt.Errorf("failed to read attempt stats: %w", err)
	}

	if pages > 0 {
		stats.MeanPerPage = float64(stats.Total) / float64(pages)
	}
	stats.MeanDuration = time.Duration(meanMillis * float64(time.Millisecond))
	return stats, nil
}
