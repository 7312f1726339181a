package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the log file kept in every working directory. All runs
// append to it, so the file is a complete history of the crawl.
const FileName = "log.log"

// TeeHandler duplicates log records to multiple slog handlers.
// wordcrawl uses it to pair a quiet console handler with a verbose
// file handler over the same logger.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handlers (text, JSON, etc.)
//  3. Components keep accepting a plain *slog.Logger
type TeeHandler struct {
	// handlers receive every record they are individually enabled for.
	handlers []slog.Handler
}

// NewTeeHandler creates a handler fanning out to the given handlers.
// Nil entries are skipped.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	kept := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &TeeHandler{handlers: kept}
}

// Enabled reports whether any underlying handler handles records at the
// given level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to every underlying handler enabled for its
// level. All handlers are attempted even if one fails.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with the given attributes added to
// every underlying handler.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: wrapped}
}

// WithGroup returns a new handler with the given group name applied to
// every underlying handler.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	wrapped := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		wrapped[i] = handler.WithGroup(name)
	}
	return &TeeHandler{handlers: wrapped}
}

// NewConsoleLogger creates a text logger for commands that don't own a
// working directory.
//
// Parameters:
//   - w: the io.Writer to write log output to (typically os.Stderr)
//   - verbose: if true, sets log level to Debug; otherwise Warn
func NewConsoleLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: consoleLevel(verbose),
	}))
}

// NewCrawlLogger creates the crawl's logger: console output filtered to
// warnings (or debug with verbose), plus an append-only log.log file in
// the working directory that always records info and above. The
// returned closer must be called when the crawl ends.
func NewCrawlLogger(workdir string, console io.Writer, verbose bool) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(workdir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	path := filepath.Join(workdir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // Path is under the user's own workdir
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileLevel := slog.LevelInfo
	if verbose {
		fileLevel = slog.LevelDebug
	}

	tee := NewTeeHandler(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel(verbose)}),
		slog.NewTextHandler(file, &slog.HandlerOptions{Level: fileLevel}),
	)
	return slog.New(tee), file.Close, nil
}

// consoleLevel maps the verbose flag to a console log level.
func consoleLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
