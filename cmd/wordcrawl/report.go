package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wordcrawl/wordcrawl/internal/config"
	"github.com/wordcrawl/wordcrawl/internal/contentstore"
	"github.com/wordcrawl/wordcrawl/internal/crawler"
	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/report"
	"github.com/wordcrawl/wordcrawl/internal/state"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [seed-url]",
		Short: "Render a report of a crawl's progress and word counts",
		Long: `Report summarizes a working directory: crawl progress, attempt
statistics, error counts, artifact file counts, and the highest word
counts. It opens state.db read-only, so it is safe to run while a crawl
is in progress in the same directory.

The working directory is located from the seed URL the same way the
crawl command locates it, or named directly with --workdir.

Examples:
  # Report on a crawl by its seed URL
  wordcrawl report https://quotes.toscrape.com

  # Report on an explicit working directory
  wordcrawl report -w ./my-crawl

  # Machine-readable JSON
  wordcrawl report --json https://quotes.toscrape.com

  # Markdown with a status pie chart, written to a file
  wordcrawl report --markdown -o report.md https://quotes.toscrape.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("workdir", "w", "",
		"Working directory to report on (default: derived from the seed URL)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Int("top", config.DefaultTopWords,
		"How many of the highest word counts to include")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	workdir, err := resolveWorkdir(cmd, args)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	topWords, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}

	crawlReport, err := collectReport(context.Background(), workdir, topWords)
	if err != nil {
		return err
	}

	return outputCrawlReport(crawlReport, jsonOut, markdownOut, outputPath)
}

// resolveWorkdir finds the working directory for a read-only command:
// --workdir wins, otherwise it is derived from the seed URL argument
// the same way the crawl command derives it.
func resolveWorkdir(cmd *cobra.Command, args []string) (string, error) {
	workdir, err := cmd.Flags().GetString("workdir")
	if err != nil {
		return "", err
	}
	if workdir != "" {
		return workdir, nil
	}
	if len(args) == 0 {
		return "", errors.New("no working directory: give a seed URL or --workdir")
	}
	return config.WorkdirForSeed(args[0])
}

// collectReport snapshots workdir's crawl state. The store is opened
// read-only so a crawl running in the same directory is undisturbed.
func collectReport(ctx context.Context, workdir string, topWords int) (*model.CrawlReport, error) {
	st, err := state.Open(workdir, state.ReadOnlyOptions())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	session, err := st.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w in %s", report.ErrNoSession, workdir)
	}

	// The attempt budget lives in the run parameter file, not the
	// session; fall back to the default when the file is gone.
	maxAttempts := config.DefaultMaxAttempts
	rf, err := config.ReadRunFile(workdir)
	if err != nil {
		return nil, err
	}
	if rf != nil && rf.MaxAttempts >= 1 {
		maxAttempts = rf.MaxAttempts
	}

	scope, err := crawler.NewScope(session.SeedURL)
	if err != nil {
		return nil, err
	}
	files, err := contentstore.New(workdir, scope.Prefix())
	if err != nil {
		return nil, err
	}

	return report.Collect(ctx, st, report.CollectOptions{
		Workdir:     workdir,
		MaxAttempts: maxAttempts,
		TopWords:    topWords,
		Files:       files,
	})
}

// outputCrawlReport renders the report in the requested format.
func outputCrawlReport(crawlReport *model.CrawlReport, jsonOut, markdownOut bool, outputPath string) error {
	// Determine output destination
	var output *os.File
	if outputPath != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case jsonOut:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case markdownOut:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output)
	}

	_, err := writer.Write(crawlReport)
	return err
}
