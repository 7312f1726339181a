package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DBFileName is the name of the state database inside a working directory.
// External tooling relies on this name, treat it as a compatibility contract.
const DBFileName = "state.db"

// Store provides SQLite-based storage for the crawl frontier, the word
// tally, the session record, and the attempt log.
//
// Design decision: We keep all four concerns in one database file rather
// than separate files because the resume contract depends on cross-table
// transactions: marking a page visited and merging its word counts must
// commit or roll back together.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the working directory and database file
	// if they don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. WAL is what makes committed
	// frontier updates survive a kill, so every writer should keep it on.
	EnableWAL bool

	// ReadOnly opens the database for reading only. Progress tooling
	// (status, report) uses this so it can never mutate crawl state.
	// ReadOnly connections skip schema creation and journal changes.
	ReadOnly bool
}

// DefaultOptions returns the options used by the crawling process.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ReadOnlyOptions returns the options used by read-only consumers.
func ReadOnlyOptions() Options {
	return Options{
		ReadOnly: true,
	}
}

// Open opens or creates the state database inside the given working
// directory. With CreateIfNotExists the directory and database file are
// created; otherwise a missing database is an error.
func Open(workdir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(workdir, DBFileName)

	if opts.ReadOnly || !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("state database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(workdir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}
	}

	// Build connection string.
	// modernc.org/sqlite uses mode=rwc to allow creation, mode=rw to
	// require an existing file, and mode=ro for read-only access.
	var dsn string
	switch {
	case opts.ReadOnly:
		dsn = dbPath + "?mode=ro"
	case opts.CreateIfNotExists:
		dsn = dbPath + "?mode=rwc"
	default:
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection also
	// keeps transactions on the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	// Readers back off instead of failing while the crawler holds a
	// write transaction.
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if opts.EnableWAL && !opts.ReadOnly {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if !opts.ReadOnly {
		if err := s.createTables(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- The frontier: one row per discovered URL, never deleted.
	-- The CHECK mirrors the Status type; id order is the FIFO
	-- tie-breaker within a depth level.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'queued'
			CHECK (status IN ('queued', 'visited', 'failed')),
		attempts INTEGER NOT NULL DEFAULT 0,
		inserted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_attempt DATETIME,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);
	CREATE INDEX IF NOT EXISTS idx_pages_status_depth ON pages(status, depth, id);

	-- The word tally, merged into on every queued->visited transition.
	CREATE TABLE IF NOT EXISTS words (
		word TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	-- Per-fetch audit trail across all runs against this directory.
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		attempt INTEGER NOT NULL,
		status_code INTEGER,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		attempted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_url ON attempts(url);
	CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);

	-- The session singleton: the parameters this directory was created for.
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		seed_url TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(ts string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
