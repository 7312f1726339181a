// Package log provides logging utilities for wordcrawl.
// It defines a fan-out slog handler that duplicates records to the
// console and to the working directory's log.log file, so the console
// stays quiet while the file keeps a complete record of every run.
package log
