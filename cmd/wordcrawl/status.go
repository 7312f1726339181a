package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/report"
	"github.com/wordcrawl/wordcrawl/internal/state"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [seed-url]",
		Short: "Show the frontier counts of a crawl",
		Long: `Status prints a one-look summary of a working directory: the crawl's
seed, depth, and how many pages are downloaded, failed, and still
queued. It opens state.db read-only, so it is safe to run while a crawl
is in progress in the same directory.

Examples:
  # Status of a crawl by its seed URL
  wordcrawl status https://quotes.toscrape.com

  # Status of an explicit working directory
  wordcrawl status -w ./my-crawl`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("workdir", "w", "",
		"Working directory to inspect (default: derived from the seed URL)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, args []string) error {
	workdir, err := resolveWorkdir(cmd, args)
	if err != nil {
		return err
	}

	ctx := context.Background()

	st, err := state.Open(workdir, state.ReadOnlyOptions())
	if err != nil {
		return err
	}
	defer st.Close()

	session, err := st.Session(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w in %s", report.ErrNoSession, workdir)
	}

	counts, err := st.StatusCounts(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Crawl of %s (max depth %d)\n", session.SeedURL, session.MaxDepth)
	fmt.Fprintf(out, "Working directory: %s\n\n", workdir)
	fmt.Fprintf(out, "  downloaded: %d\n", counts[model.StatusVisited])
	fmt.Fprintf(out, "      failed: %d\n", counts[model.StatusFailed])
	fmt.Fprintf(out, "      queued: %d\n", counts[model.StatusQueued])

	switch {
	case counts[model.StatusQueued] > 0:
		fmt.Fprintf(out, "\nIn progress: rerun \"wordcrawl crawl %s\" to resume.\n", session.SeedURL)
	case counts[model.StatusVisited]+counts[model.StatusFailed] > 0:
		fmt.Fprintln(out, "\nComplete.")
	}

	return nil
}
