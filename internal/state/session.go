package state

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

// SessionMismatchError reports a resume attempt with parameters that
// conflict with the ones the working directory was created for.
// Field names the first conflicting parameter.
type SessionMismatchError struct {
	// Field is the conflicting session parameter ("seed URL" or "max depth").
	Field string

	// Stored is the value recorded when the directory was created.
	Stored string

	// Requested is the value this run asked for.
	Requested string
}

// Error implements the error interface.
func (e *SessionMismatchError) Error() string {
	return fmt.Sprintf("session mismatch: directory was created with %s %s, this run requested %s",
		e.Field, e.Stored, e.Requested)
}

// EstablishOrValidateSession pins the working directory to a crawl
// identity, or checks the pin on resume.
//
// On a fresh directory the session record is created and created=true is
// returned. On resume both parameters must match exactly; a partial match
// (same seed, different depth, or the reverse) fails with a
// *SessionMismatchError. The check runs before any frontier mutation, so
// a mismatched run leaves the directory byte-for-byte untouched.
func (s *Store) EstablishOrValidateSession(ctx context.Context, seedURL string, maxDepth int) (*model.Session, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	session, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT seed_url, max_depth, created_at FROM session WHERE id = 1`,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read session: %w", err)
	}

	if session != nil {
		if session.SeedURL != seedURL {
			return nil, false, &SessionMismatchError{
				Field:     "seed URL",
				Stored:    session.SeedURL,
				Requested: seedURL,
			}
		}
		if session.MaxDepth != maxDepth {
			return nil, false, &SessionMismatchError{
				Field:     "max depth",
				Stored:    strconv.Itoa(session.MaxDepth),
				Requested: strconv.Itoa(maxDepth),
			}
		}
		return session, false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session (id, seed_url, max_depth) VALUES (1, ?, ?)`,
		seedURL, maxDepth,
	); err != nil {
		return nil, false, fmt.Errorf("failed to establish session: %w", err)
	}

	session, err = scanSession(tx.QueryRowContext(ctx,
		`SELECT seed_url, max_depth, created_at FROM session WHERE id = 1`,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read back session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit session: %w", err)
	}
	return session, true, nil
}

// Session returns the directory's session record, or nil if no crawl has
// been started yet.
func (s *Store) Session(ctx context.Context) (*model.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT seed_url, max_depth, created_at FROM session WHERE id = 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return session, nil
}

// scanSession scans the session singleton row.
// Returns nil, nil when no session has been established.
func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var createdAt string

	err := row.Scan(&session.SeedURL, &session.MaxDepth, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session.CreatedAt = parseTimestamp(createdAt)
	return &session, nil
}
