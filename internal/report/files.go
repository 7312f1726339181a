package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wordcrawl/wordcrawl/internal/model"
)

const (
	// ReportFileName is the text report written into the working directory.
	ReportFileName = "report.txt"

	// WordCountsFileName is the aggregated word tally written into the
	// working directory, highest counts first.
	WordCountsFileName = "word_counts.json"
)

// WriteReportFile renders the text report into workdir/report.txt.
// The file is rewritten whole on every call, so it always reflects the
// latest snapshot.
func WriteReportFile(workdir string, report *model.CrawlReport) error {
	var buf bytes.Buffer
	if _, err := NewTextWriter(&buf).Write(report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	path := filepath.Join(workdir, ReportFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteWordCountsFile writes the aggregated word tally into
// workdir/word_counts.json. The slice order is preserved, so callers pass
// counts already sorted highest first.
func WriteWordCountsFile(workdir string, counts []model.WordCount) error {
	// A nil slice would encode as JSON null; the file is always an array.
	if counts == nil {
		counts = []model.WordCount{}
	}

	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode word counts: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(workdir, WordCountsFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
