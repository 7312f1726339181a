// Package main provides the entry point for the wordcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wordcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordcrawl",
		Short: "Resumable single-site crawler with word frequency tallies",
		Long: `Wordcrawl walks one website breadth-first from a seed URL, saves every
page it downloads, and tallies how often each word appears across the
site.

Every crawl runs inside a working directory whose state survives
interrupts: stop the crawl at any point and rerun the same command to
resume where it left off. Pages that fail transiently are retried with
backoff; pages that keep failing are recorded and skipped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
