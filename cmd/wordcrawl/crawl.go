package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wordcrawl/wordcrawl/internal/config"
	"github.com/wordcrawl/wordcrawl/internal/contentstore"
	"github.com/wordcrawl/wordcrawl/internal/crawler"
	"github.com/wordcrawl/wordcrawl/internal/lockfile"
	"github.com/wordcrawl/wordcrawl/internal/log"
	"github.com/wordcrawl/wordcrawl/internal/model"
	"github.com/wordcrawl/wordcrawl/internal/report"
	"github.com/wordcrawl/wordcrawl/internal/state"
	"golang.org/x/sync/errgroup"
)

// progressInterval is how often a running crawl logs frontier counts.
const progressInterval = 5 * time.Second

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl a website and tally its words",
		Long: `Crawl walks one website breadth-first from the seed URL, saves every
page it downloads, and tallies word frequencies across the site.

All crawl state lives in a working directory: the frontier and word
tally in state.db, raw pages under pages/, extracted text under text/,
and per-page tallies under words/. Interrupt the crawl at any time and
rerun the same command to resume where it left off. When the frontier
drains, the final word counts and a human-readable report are written
into the working directory.

Examples:
  # Crawl a site one link deep (the default)
  wordcrawl crawl https://quotes.toscrape.com

  # Follow links three levels from the seed
  wordcrawl crawl -d 3 https://quotes.toscrape.com

  # Resume after an interrupt: same command, state is durable
  wordcrawl crawl https://quotes.toscrape.com

  # Discard previous state and start over
  wordcrawl crawl --purge https://quotes.toscrape.com

Settings file (.wordcrawl) example:
  defaults:
    delay: 500ms
  sites:
    quotes.toscrape.com:
      depth: 2
      maxAttempts: 3`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed (0 crawls only the seed page)")
	cmd.Flags().IntP("max-attempts", "a", config.DefaultMaxAttempts,
		"Fetch attempts per page before a transient failure becomes permanent")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Politeness pause before each request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"End-to-end timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Working directory flags
	cmd.Flags().StringP("workdir", "w", "",
		"Working directory for crawl state (default: per-site directory under the XDG data home)")
	cmd.Flags().Bool("purge", false,
		"Discard all previous crawl state in the working directory before starting")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Settings file path (default: .wordcrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return runCrawl(context.Background(), cfg)
}

// buildCrawlConfig creates a Config from the crawl command flags.
//
// Precedence, lowest to highest: built-in defaults, the settings file's
// entry for the seed's host, parameters recorded in the working
// directory's config.json, flags given explicitly on this command line.
// The seed URL and max depth are additionally validated against the
// session stored in state.db, which is what actually rejects a
// mismatched resume.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.SeedURL = args[0]

	cfg.MaxDepth, err = cmd.Flags().GetInt("max-depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxAttempts, err = cmd.Flags().GetInt("max-attempts")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Workdir, err = cmd.Flags().GetString("workdir")
	if err != nil {
		return nil, err
	}

	cfg.Purge, err = cmd.Flags().GetBool("purge")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load per-site settings from the settings file.
	// If user explicitly specified a settings file path, error if not
	// found. If no path specified, silently use empty settings if no
	// file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a settings file that doesn't exist
		return nil, fmt.Errorf("settings file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty settings if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	applySiteConfig(cfg, cmd)

	// The default working directory is named after the seed's host so
	// crawls of different sites never share state by accident.
	if cfg.Workdir == "" {
		cfg.Workdir, err = config.WorkdirForSeed(cfg.SeedURL)
		if err != nil {
			return nil, err
		}
	}

	if err := applyRunFile(cfg, cmd); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySiteConfig folds the settings file's entry for the seed's host
// into cfg. A flag given explicitly on the command line beats the
// settings file.
func applySiteConfig(cfg *config.Config, cmd *cobra.Command) {
	u, err := url.Parse(cfg.SeedURL)
	if err != nil || u.Host == "" {
		return
	}
	site := cfg.SiteConfigs.GetSiteConfig(u.Host)
	flags := cmd.Flags()

	if site.Depth > 0 && !flags.Changed("max-depth") {
		cfg.MaxDepth = site.Depth
	}
	if site.MaxAttempts > 0 && !flags.Changed("max-attempts") {
		cfg.MaxAttempts = site.MaxAttempts
	}
	if site.Delay != "" && !flags.Changed("delay") {
		if d, err := time.ParseDuration(site.Delay); err == nil && d >= 0 {
			cfg.CrawlDelay = d
		}
	}
	if site.UserAgent != "" && !flags.Changed("user-agent") {
		cfg.UserAgent = site.UserAgent
	}
}

// applyRunFile restores parameters recorded in the working directory's
// config.json so a bare "wordcrawl crawl <url>" resumes with the
// options the crawl started with. A flag given explicitly on this
// command line wins over the recorded value. The recorded max depth is
// restored like the rest; an explicit -d that disagrees with the stored
// session still fails session validation later.
func applyRunFile(cfg *config.Config, cmd *cobra.Command) error {
	rf, err := config.ReadRunFile(cfg.Workdir)
	if err != nil {
		return err
	}
	if rf == nil {
		return nil
	}

	flags := cmd.Flags()
	if !flags.Changed("max-depth") && rf.MaxDepth >= 0 {
		cfg.MaxDepth = rf.MaxDepth
	}
	if !flags.Changed("max-attempts") && rf.MaxAttempts >= 1 {
		cfg.MaxAttempts = rf.MaxAttempts
	}
	delay, timeout := rf.Durations()
	if !flags.Changed("delay") {
		cfg.CrawlDelay = delay
	}
	if !flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if !flags.Changed("user-agent") && rf.UserAgent != "" {
		cfg.UserAgent = rf.UserAgent
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// purgeEntries are the names --purge removes from the working
// directory. The lock file stays: the flock held by this process lives
// on its open file descriptor, and removing the file would let a second
// crawler lock a fresh one while this one still runs.
var purgeEntries = []string{
	state.DBFileName,
	state.DBFileName + "-wal",
	state.DBFileName + "-shm",
	contentstore.PagesDirName,
	contentstore.TextDirName,
	contentstore.WordsDirName,
	config.RunFileName,
	log.FileName,
	report.ReportFileName,
	report.WordCountsFileName,
}

// purgeWorkdir deletes all crawl state from workdir, keeping only the
// held lock file. The caller must hold the working directory lock.
func purgeWorkdir(workdir string) error {
	for _, name := range purgeEntries {
		if err := os.RemoveAll(filepath.Join(workdir, name)); err != nil {
			return fmt.Errorf("failed to purge %s: %w", name, err)
		}
	}
	return nil
}

// runCrawl executes the crawl inside the working directory lock.
func runCrawl(ctx context.Context, cfg *config.Config) error {
	// Lock first: every stateful step below assumes exclusive ownership
	// of the working directory. If another live process holds the lock,
	// Acquire fails immediately with a message naming the holder.
	lock, err := lockfile.Acquire(cfg.Workdir)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release() //nolint:errcheck // Best effort cleanup
	}()

	// Purge before the log opens so the fresh run starts with a fresh
	// log file.
	if cfg.Purge {
		if err := purgeWorkdir(cfg.Workdir); err != nil {
			return err
		}
	}

	logger, closeLog, err := log.NewCrawlLogger(cfg.Workdir, os.Stderr, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to open crawl log: %w", err)
	}
	defer func() {
		_ = closeLog() //nolint:errcheck // Best effort cleanup
	}()
	slog.SetDefault(logger)

	if cfg.Purge {
		logger.Warn("working directory purged, starting fresh", "workdir", cfg.Workdir)
	}

	// Handle interrupt signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping crawl...")
		cancel()
	}()

	st, err := state.Open(cfg.Workdir, state.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer st.Close()

	// The session is keyed on the normalized seed so a resume with a
	// differently spelled but equivalent URL still matches.
	seed, err := crawler.Normalize(cfg.SeedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}

	session, created, err := st.EstablishOrValidateSession(ctx, seed, cfg.MaxDepth)
	if err != nil {
		return err
	}

	if created {
		logger.Info("starting new crawl",
			"seed", session.SeedURL,
			"workdir", cfg.Workdir,
			"max_depth", session.MaxDepth,
			"max_attempts", cfg.MaxAttempts,
		)
	} else {
		logger.Info("resuming previous crawl",
			"seed", session.SeedURL,
			"workdir", cfg.Workdir,
			"max_depth", session.MaxDepth,
			"max_attempts", cfg.MaxAttempts,
		)
	}

	if err := cfg.WriteRunFile(cfg.Workdir); err != nil {
		return err
	}

	// Seeding is idempotent: on resume the row already exists and keeps
	// its recorded outcome.
	if _, err := st.Enqueue(ctx, seed, 0); err != nil {
		return err
	}

	scope, err := crawler.NewScope(session.SeedURL)
	if err != nil {
		return fmt.Errorf("invalid session seed: %w", err)
	}

	artifacts, err := contentstore.New(cfg.Workdir, scope.Prefix())
	if err != nil {
		return err
	}

	fetcher := crawler.NewHTTPFetcher(
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithFetchTimeout(cfg.Timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	)

	spider := crawler.NewSpider(st, scope,
		crawler.WithFetcher(fetcher),
		crawler.WithArtifactStore(artifacts),
		crawler.WithRetryPolicy(crawler.NewRetryPolicy(cfg.MaxAttempts)),
		crawler.WithLogger(logger),
		crawler.WithMaxDepth(session.MaxDepth),
		crawler.WithDelay(cfg.CrawlDelay),
	)

	start := time.Now()
	stats, runErr := runSpider(ctx, spider, st, logger)
	elapsed := time.Since(start)

	interrupted := false
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		interrupted = true
		logger.Warn("crawl interrupted, state saved",
			"visited", stats.Visited,
			"failed", stats.Failed,
			"elapsed", elapsed.Round(time.Millisecond),
		)
	}

	// The interrupt canceled ctx; the final outputs still have to be
	// written, and they reflect whatever the store holds now.
	outCtx := context.WithoutCancel(ctx)
	if err := writeCrawlOutputs(outCtx, st, artifacts, cfg); err != nil {
		return err
	}

	// An interrupted run exits nonzero: the frontier is not drained, and
	// callers chaining "crawl && report" should not see success. The
	// resume hint is the error text.
	if interrupted {
		return fmt.Errorf("crawl interrupted after %s; rerun the same command to resume",
			elapsed.Round(time.Millisecond))
	}

	logger.Info("crawl completed",
		"seed", session.SeedURL,
		"workdir", cfg.Workdir,
		"visited", stats.Visited,
		"failed", stats.Failed,
		"attempts", stats.Attempts,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	fmt.Printf("Crawl completed in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Report: %s\n", filepath.Join(cfg.Workdir, report.ReportFileName))

	return nil
}

// runSpider drains the frontier while a companion goroutine logs
// progress. Both run under one errgroup, so a store failure in the
// spider also stops the reporter.
func runSpider(ctx context.Context, spider *crawler.Spider, st *state.Store, logger *slog.Logger) (*crawler.RunStats, error) {
	g, gctx := errgroup.WithContext(ctx)

	// The reporter has no failure mode of its own; it stops when the
	// spider finishes or the group is canceled.
	runCtx, stopReporter := context.WithCancel(gctx)
	defer stopReporter()

	var stats *crawler.RunStats
	g.Go(func() error {
		defer stopReporter()
		var err error
		stats, err = spider.Run(runCtx)
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return nil
			case <-ticker.C:
				counts, err := st.StatusCounts(runCtx)
				if err != nil {
					continue
				}
				logger.Info("crawl progress",
					"visited", counts[model.StatusVisited],
					"failed", counts[model.StatusFailed],
					"queued", counts[model.StatusQueued],
				)
			}
		}
	})

	err := g.Wait()
	return stats, err
}

// writeCrawlOutputs exports the final word counts and the progress
// report into the working directory. Both are derived entirely from the
// store, so an interrupted crawl gets an accurate partial report.
func writeCrawlOutputs(ctx context.Context, st *state.Store, files report.FileCounter, cfg *config.Config) error {
	counts, err := st.ExportWordCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to export word counts: %w", err)
	}
	if err := report.WriteWordCountsFile(cfg.Workdir, counts); err != nil {
		return err
	}

	crawlReport, err := report.Collect(ctx, st, report.CollectOptions{
		Workdir:     cfg.Workdir,
		MaxAttempts: cfg.MaxAttempts,
		TopWords:    cfg.TopWords,
		Files:       files,
	})
	if err != nil {
		return err
	}
	return report.WriteReportFile(cfg.Workdir, crawlReport)
}
