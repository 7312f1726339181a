package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

// Enqueue adds a URL to the frontier at the given depth.
// It reports whether a new row was inserted.
//
// Enqueue is idempotent: a URL already present in any status is left
// untouched, keeping its original depth and outcome. The caller must
// pass the URL in canonical form; the store treats it as an opaque key.
func (s *Store) Enqueue(ctx context.Context, url string, depth int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pages (url, depth) VALUES (?, ?)`,
		url, depth,
	)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue %s: %w", url, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read enqueue result: %w", err)
	}
	return rows > 0, nil
}

// NextQueued returns the queued page with the smallest depth, ties broken
// by insertion order. It returns nil without error when no queued pages
// remain, which is the crawl's termination signal.
func (s *Store) NextQueued(ctx context.Context) (*model.Page, error) {
	query := `
	SELECT id, url, depth, status, attempts, inserted_at, last_attempt, error
	FROM pages
	WHERE status = 'queued'
	ORDER BY depth ASC, id ASC
	LIMIT 1
	`

	page, err := scanPage(s.db.QueryRowContext(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to pop frontier: %w", err)
	}
	return page, nil
}

// PageByURL returns the frontier row for a URL, or nil if the URL was
// never discovered.
func (s *Store) PageByURL(ctx context.Context, url string) (*model.Page, error) {
	query := `
	SELECT id, url, depth, status, attempts, inserted_at, last_attempt, error
	FROM pages
	WHERE url = ?
	`

	page, err := scanPage(s.db.QueryRowContext(ctx, query, url))
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", url, err)
	}
	return page, nil
}

// MarkVisited transitions a queued page to visited and merges the page's
// word counts into the tally, all in one transaction. The page's error
// column is cleared: a page that eventually succeeded carries no error.
//
// The single transaction is what makes the tally exactly-once: a crash
// can never leave a page visited without its words counted, or counted
// twice. Marking a page that is not queued returns ErrNotQueued and
// merges nothing.
func (s *Store) MarkVisited(ctx context.Context, url string, words map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE pages SET status = 'visited', error = NULL, last_attempt = CURRENT_TIMESTAMP
		 WHERE url = ? AND status = 'queued'`,
		url,
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s visited: %w", url, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read visit result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark visited %s: %w", url, ErrNotQueued)
	}

	if err := mergeWordCounts(ctx, tx, words); err != nil {
		return fmt.Errorf("failed to merge word counts for %s: %w", url, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visit of %s: %w", url, err)
	}
	return nil
}

// MarkFailed transitions a queued page to failed with a terminal reason.
// Failed pages are never fetched again, even across resumes.
func (s *Store) MarkFailed(ctx context.Context, url, reason string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE pages SET status = 'failed', error = ?, last_attempt = CURRENT_TIMESTAMP
		 WHERE url = ? AND status = 'queued'`,
		reason, url,
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s failed: %w", url, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read failure result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark failed %s: %w", url, ErrNotQueued)
	}
	return nil
}

// RecordAttempt records one finished fetch attempt against a queued page:
// the attempt counter is incremented and the error message stored. The
// page stays queued either way.
//
// retryInPlace states the caller's intent: true means the page will be
// re-popped later (transient failure below the retry budget), false means
// the caller is about to call MarkFailed. The row update is identical for
// both, the flag documents the transition at the call site.
func (s *Store) RecordAttempt(ctx context.Context, url, errMsg string, retryInPlace bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE pages SET attempts = attempts + 1, last_attempt = CURRENT_TIMESTAMP, error = ?
		 WHERE url = ? AND status = 'queued'`,
		errMsg, url,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt on %s: %w", url, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read attempt result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("record attempt %s: %w", url, ErrNotQueued)
	}
	return nil
}

// Count returns the total number of discovered URLs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of pages in the given status.
func (s *Store) CountByStatus(ctx context.Context, status model.Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE status = ?`, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s pages: %w", status, err)
	}
	return count, nil
}

// StatusCounts returns the number of pages per status in one query.
// Statuses with no pages are present with a zero count.
func (s *Store) StatusCounts(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM pages GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := map[model.Status]int{
		model.StatusQueued:  0,
		model.StatusVisited: 0,
		model.StatusFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.Status(status)] = count
	}
	return counts, rows.Err()
}

// ErrorTally groups failed pages by error message, most frequent first,
// ties by message. This feeds the report's error section.
func (s *Store) ErrorTally(ctx context.Context) ([]model.ErrorCount, error) {
	query := `
	SELECT error, COUNT(*) AS n
	FROM pages
	WHERE status = 'failed' AND error IS NOT NULL AND error != ''
	GROUP BY error
	ORDER BY n DESC, error ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to tally errors: %w", err)
	}
	defer rows.Close()

	var tally []model.ErrorCount
	for rows.Next() {
		var ec model.ErrorCount
		if err := rows.Scan(&ec.Message, &ec.Count); err != nil {
			return nil, fmt.Errorf("failed to scan error tally: %w", err)
		}
		tally = append(tally, ec)
	}
	return tally, rows.Err()
}

// rowScanner abstracts *sql.Row so scanPage works for single-row queries.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPage scans one frontier row into a model.Page.
// Returns nil, nil when the query matched no rows.
func scanPage(row rowScanner) (*model.Page, error) {
	var page model.Page
	var status string
	var insertedAt string
	var lastAttempt sql.NullString
	var errMsg sql.NullString

	err := row.Scan(
		&page.ID,
		&page.URL,
		&page.Depth,
		&status,
		&page.Attempts,
		&insertedAt,
		&lastAttempt,
		&errMsg,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	page.Status = model.Status(status)
	page.InsertedAt = parseTimestamp(insertedAt)
	if lastAttempt.Valid {
		page.LastAttempt = parseTimestamp(lastAttempt.String)
	}
	if errMsg.Valid {
		page.Error = errMsg.String
	}
	return &page, nil
}
