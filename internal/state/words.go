package state

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

// mergeWordCounts adds a page-local word count map into the tally inside
// an existing transaction. Words are inserted on first sight and added to
// afterwards, so re-running a crawl never needs to reset the table.
//
// Only MarkVisited calls this: the tally changes exclusively on the
// queued->visited transition, inside that transition's transaction.
func mergeWordCounts(ctx context.Context, tx *sql.Tx, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO words (word, count) VALUES (?, ?)
		 ON CONFLICT(word) DO UPDATE SET count = count + excluded.count`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare word merge: %w", err)
	}
	defer stmt.Close()

	// Deterministic order keeps transaction contents reproducible.
	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Strings(words)

	for _, word := range words {
		if _, err := stmt.ExecContext(ctx, word, counts[word]); err != nil {
			return fmt.Errorf("failed to merge word %q: %w", word, err)
		}
	}
	return nil
}

// TopWords returns the n highest word counts, ordered by count descending
// and ties by word ascending.
func (s *Store) TopWords(ctx context.Context, n int) ([]model.WordCount, error) {
	query := `
	SELECT word, count FROM words
	ORDER BY count DESC, word ASC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top words: %w", err)
	}
	defer rows.Close()

	return scanWordCounts(rows)
}

// ExportWordCounts returns the full tally in the same ordering as
// TopWords. This feeds the word_counts.json export.
func (s *Store) ExportWordCounts(ctx context.Context) ([]model.WordCount, error) {
	query := `
	SELECT word, count FROM words
	ORDER BY count DESC, word ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to export word counts: %w", err)
	}
	defer rows.Close()

	return scanWordCounts(rows)
}

// DistinctWords returns the number of distinct words in the tally.
func (s *Store) DistinctWords(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// scanWordCounts collects word/count rows into a slice.
func scanWordCounts(rows *sql.Rows) ([]model.WordCount, error) {
	var counts []model.WordCount
	for rows.Next() {
		var wc model.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan word count: %w", err)
		}
		counts = append(counts, wc)
	}
	return counts, rows.Err()
}
