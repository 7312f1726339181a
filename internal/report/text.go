package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

// TextWriter outputs human-readable text reports. This is the format
// written to report.txt in the working directory and shown on the
// terminal by the report subcommand.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. The same bytes are written to report.txt and to stdout
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *TextWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Progress counters
	w.writeProgress(&sb, report)

	// Artifact file counts
	w.writeFiles(&sb, report)

	// Attempt statistics
	w.writeAttempts(&sb, report)

	// Error tally
	w.writeErrors(&sb, report)

	// Word tally
	w.writeWords(&sb, report)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with the session parameters and,
// once the frontier is drained, the completion banner naming where the
// crawl's outputs ended up.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:     %s\n", report.Session.SeedURL))
	sb.WriteString(fmt.Sprintf("Working Dir:  %s\n", report.Workdir))
	sb.WriteString(fmt.Sprintf("Max Depth:    %d\n", report.Session.MaxDepth))
	sb.WriteString(fmt.Sprintf("Max Attempts: %d\n", report.MaxAttempts))
	sb.WriteString(fmt.Sprintf("Generated:    %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	switch {
	case report.TotalPages() == 0:
		sb.WriteString("Status:       EMPTY (no pages recorded yet)\n")
	case report.Complete():
		sb.WriteString("Status:       COMPLETE\n")
	default:
		sb.WriteString(fmt.Sprintf("Status:       IN PROGRESS (%d pages still queued)\n", report.Queued))
	}

	if report.TotalPages() > 0 && report.Complete() {
		sb.WriteString("\nCRAWL COMPLETED\n\n")
		sb.WriteString(fmt.Sprintf("Raw pages stored under:       %s\n", filepath.Join(report.Workdir, "pages")))
		sb.WriteString(fmt.Sprintf("Extracted text stored under:  %s\n", filepath.Join(report.Workdir, "text")))
		sb.WriteString(fmt.Sprintf("Final word counts stored in:  %s\n", filepath.Join(report.Workdir, WordCountsFileName)))
	}

	sb.WriteString("\n")
}

// writeProgress writes the frontier status counters.
func (w *TextWriter) writeProgress(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROGRESS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("%8d pages downloaded\n", report.Visited))
	sb.WriteString(fmt.Sprintf("%8d pages failed\n", report.Failed))
	sb.WriteString(fmt.Sprintf("%8d pages still queued\n", report.Queued))
	sb.WriteString(fmt.Sprintf("%8d pages discovered in total\n", report.TotalPages()))
	sb.WriteString("\n")
}

// writeFiles writes the artifact file counts per directory.
func (w *TextWriter) writeFiles(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FILES PRODUCED\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  pages/: %d\n", report.Files.Pages))
	sb.WriteString(fmt.Sprintf("   text/: %d\n", report.Files.Texts))
	sb.WriteString(fmt.Sprintf("  words/: %d\n", report.Files.Words))
	sb.WriteString("\n")
}

// writeAttempts writes the per-page statistics from the attempt audit log.
func (w *TextWriter) writeAttempts(sb *strings.Builder, report *model.CrawlReport) {
	if report.Attempts.Total == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ATTEMPT STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if report.Attempts.Total == 0 {
		sb.WriteString("  no fetch attempts recorded\n")
	} else {
		sb.WriteString(fmt.Sprintf("  total attempts:      %d\n", report.Attempts.Total))
		sb.WriteString(fmt.Sprintf("  mean attempts/page:  %.2f\n", report.Attempts.MeanPerPage))
		sb.WriteString(fmt.Sprintf("  mean fetch duration: %s\n", report.Attempts.MeanDuration.Round(time.Millisecond)))
	}
	sb.WriteString("\n")
}

// writeErrors writes failure counts grouped by error message, most
// frequent first.
func (w *TextWriter) writeErrors(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Errors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERROR COUNTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Errors) == 0 {
		sb.WriteString("  no errors recorded\n")
	} else {
		for _, e := range report.Errors {
			sb.WriteString(fmt.Sprintf("%8d  %s\n", e.Count, e.Message))
		}
	}
	sb.WriteString("\n")
}

// writeWords writes the highest word counts of the aggregated tally.
func (w *TextWriter) writeWords(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.TopWords) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("TOP(%d) WORD COUNTS\n", len(report.TopWords)))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.TopWords) == 0 {
		sb.WriteString("  no words tallied\n")
	} else {
		for _, wc := range report.TopWords {
			sb.WriteString(fmt.Sprintf("%8d  %s\n", wc.Count, wc.Word))
		}
		sb.WriteString(fmt.Sprintf("\n%8d distinct words in total\n", report.DistinctWords))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wordcrawl\n")
	sb.WriteString("https://github.com/wordcrawl/wordcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
