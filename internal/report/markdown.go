package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/wordcrawl/wordcrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Progress counters
	w.writeProgress(md, report)

	// Artifact file counts
	w.writeFiles(md, report)

	// Attempt statistics
	w.writeAttempts(md, report)

	// Error tally
	w.writeErrors(md, report)

	// Word tally
	w.writeWords(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with the session parameters.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	// Session info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.Session.SeedURL + "`"},
			{"Working Directory", "`" + report.Workdir + "`"},
			{"Max Depth", strconv.Itoa(report.Session.MaxDepth)},
			{"Max Attempts", strconv.Itoa(report.MaxAttempts)},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.TotalPages() == 0 {
		return "⚠️ Empty (no pages recorded yet)"
	}
	if !report.Complete() {
		return fmt.Sprintf("⏳ In Progress (%d pages still queued)", report.Queued)
	}
	return "✅ Complete"
}

// writeProgress writes the frontier status counters.
func (w *MarkdownWriter) writeProgress(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Progress")
	md.PlainText("")

	// Status count table
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Pages"},
		Rows: [][]string{
			{"Downloaded", strconv.Itoa(report.Visited)},
			{"Failed", strconv.Itoa(report.Failed)},
			{"Still Queued", strconv.Itoa(report.Queued)},
			{"**Total**", "**" + strconv.Itoa(report.TotalPages()) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if there are pages
	if report.TotalPages() > 0 {
		w.writePieChart(md, report)
	}

	// Add alert based on crawl state
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for the page status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Status Distribution"),
		piechart.WithShowData(true),
	)

	if report.Visited > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(report.Visited))
	}
	if report.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Failed))
	}
	if report.Queued > 0 {
		chart.LabelAndIntValue("Queued", uint64(report.Queued))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on crawl state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.TotalPages() == 0:
		md.Warningf("No pages recorded yet. Run the crawl to populate this report.")
	case !report.Complete():
		md.Importantf(
			"Crawl in progress: %d page(s) still queued. Rerun the crawl to resume.",
			report.Queued,
		)
	case report.Failed > 0:
		md.Warningf(
			"Crawl complete, but %d page(s) permanently failed. See the error counts below.",
			report.Failed,
		)
	default:
		md.Tip("Crawl complete. Every discovered page was downloaded.")
	}
	md.PlainText("")
}

// writeFiles writes the artifact file counts per directory.
func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Files Produced")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Directory", "Files"},
		Rows: [][]string{
			{"`pages/`", strconv.Itoa(report.Files.Pages)},
			{"`text/`", strconv.Itoa(report.Files.Texts)},
			{"`words/`", strconv.Itoa(report.Files.Words)},
		},
	})
	md.PlainText("")
}

// writeAttempts writes the per-page statistics from the attempt audit log.
func (w *MarkdownWriter) writeAttempts(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Attempt Statistics")
	md.PlainText("")

	if report.Attempts.Total == 0 {
		md.PlainText("No fetch attempts recorded.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total attempts", strconv.Itoa(report.Attempts.Total)},
			{"Mean attempts per page", strconv.FormatFloat(report.Attempts.MeanPerPage, 'f', 2, 64)},
			{"Mean fetch duration", report.Attempts.MeanDuration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")
}

// writeErrors writes failure counts grouped by error message.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Error Counts")
	md.PlainText("")

	if len(report.Errors) == 0 {
		md.PlainText("No errors recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Errors))
	for i, e := range report.Errors {
		rows[i] = []string{truncateString(e.Message, 60), strconv.Itoa(e.Count)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Error", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWords writes the highest word counts of the aggregated tally.
func (w *MarkdownWriter) writeWords(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2(fmt.Sprintf("Top %d Words", len(report.TopWords)))
	md.PlainText("")

	if len(report.TopWords) == 0 {
		md.PlainText("No words tallied.")
		md.PlainText("")
		return
	}

	md.PlainTextf("%d distinct words tallied in total.", report.DistinctWords)
	md.PlainText("")

	rows := make([][]string, len(report.TopWords))
	for i, wc := range report.TopWords {
		rows[i] = []string{strconv.Itoa(i + 1), wc.Word, strconv.Itoa(wc.Count)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wordcrawl](https://github.com/wordcrawl/wordcrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
