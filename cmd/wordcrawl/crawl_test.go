package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wordcrawl/wordcrawl/internal/config"
	"github.com/wordcrawl/wordcrawl/internal/contentstore"
	"github.com/wordcrawl/wordcrawl/internal/lockfile"
	"github.com/wordcrawl/wordcrawl/internal/log"
	"github.com/wordcrawl/wordcrawl/internal/report"
	"github.com/wordcrawl/wordcrawl/internal/state"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [seed-url]" {
			t.Errorf("expected use 'crawl [seed-url]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})

	t.Run("has max-depth flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-depth")
		if flag == nil {
			t.Fatal("expected max-depth flag")
		}
		if flag.Shorthand != "d" {
			t.Errorf("expected shorthand 'd', got %q", flag.Shorthand)
		}
	})

	t.Run("has max-attempts flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-attempts")
		if flag == nil {
			t.Fatal("expected max-attempts flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
	})

	t.Run("has delay flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("delay")
		if flag == nil {
			t.Fatal("expected delay flag")
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has user-agent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("user-agent")
		if flag == nil {
			t.Fatal("expected user-agent flag")
		}
	})

	t.Run("has workdir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("workdir")
		if flag == nil {
			t.Fatal("expected workdir flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
	})

	t.Run("has purge flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("purge")
		if flag == nil {
			t.Fatal("expected purge flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewCrawlCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		// Set verbose flag to true
		_ = root.PersistentFlags().Set("verbose", "true")

		// Get crawl subcommand
		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}

		result := getVerboseFlag(crawlCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildCrawlConfig tests configuration building from flags.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd, []string{"https://defaults-test.invalid/docs"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.SeedURL != "https://defaults-test.invalid/docs" {
			t.Errorf("expected seed URL to be set, got %q", cfg.SeedURL)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected default timeout %v, got %v", config.DefaultTimeout, cfg.Timeout)
		}
		if cfg.MaxBodySize != config.DefaultMaxBodySize {
			t.Errorf("expected default max body size %d, got %d", config.DefaultMaxBodySize, cfg.MaxBodySize)
		}
		if cfg.Purge {
			t.Error("expected Purge to be false")
		}
	})

	t.Run("derives workdir from seed host", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd, []string{"https://defaults-test.invalid/docs"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasSuffix(cfg.Workdir, "defaults-test.invalid") {
			t.Errorf("expected workdir named after seed host, got %q", cfg.Workdir)
		}
	})

	t.Run("builds config with custom depth", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("max-depth", "3")
		_ = cmd.Flags().Set("workdir", t.TempDir())
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxDepth != 3 {
			t.Errorf("expected MaxDepth 3, got %d", cfg.MaxDepth)
		}
	})

	t.Run("builds config with custom attempts", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("max-attempts", "5")
		_ = cmd.Flags().Set("workdir", t.TempDir())
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxAttempts != 5 {
			t.Errorf("expected MaxAttempts 5, got %d", cfg.MaxAttempts)
		}
	})

	t.Run("builds config with custom delay", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("delay", "250ms")
		_ = cmd.Flags().Set("workdir", t.TempDir())
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.CrawlDelay != 250*time.Millisecond {
			t.Errorf("expected CrawlDelay 250ms, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("builds config with explicit workdir", func(t *testing.T) {
		tmpDir := t.TempDir()
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("workdir", tmpDir)
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workdir != tmpDir {
			t.Errorf("expected workdir %q, got %q", tmpDir, cfg.Workdir)
		}
	})

	t.Run("builds config with purge", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("purge", "true")
		_ = cmd.Flags().Set("workdir", t.TempDir())
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.Purge {
			t.Error("expected Purge to be true")
		}
	})

	t.Run("builds config with valid settings file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".wordcrawl")

		content := []byte(`
defaults:
  depth: 4
sites:
  example.com:
    delay: 750ms
`)
		if err := os.WriteFile(configPath, content, 0600); err != nil {
			t.Fatalf("failed to write settings file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("workdir", filepath.Join(tmpDir, "wd"))
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com/docs"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		if cfg.MaxDepth != 4 {
			t.Errorf("expected depth 4 from settings defaults, got %d", cfg.MaxDepth)
		}
		if cfg.CrawlDelay != 750*time.Millisecond {
			t.Errorf("expected delay 750ms from site entry, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("explicit flag beats settings file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".wordcrawl")

		content := []byte(`
defaults:
  depth: 4
`)
		if err := os.WriteFile(configPath, content, 0600); err != nil {
			t.Fatalf("failed to write settings file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("max-depth", "9")
		_ = cmd.Flags().Set("workdir", filepath.Join(tmpDir, "wd"))
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxDepth != 9 {
			t.Errorf("expected explicit depth 9, got %d", cfg.MaxDepth)
		}
	})

	t.Run("returns error for invalid settings file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0600); err != nil {
			t.Fatalf("failed to write settings file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for invalid settings file")
		}
	})

	t.Run("returns error for missing explicit settings file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err == nil {
			t.Fatal("expected error for missing settings file")
		}
		if !strings.Contains(err.Error(), "settings file not found") {
			t.Errorf("expected 'settings file not found' error, got %v", err)
		}
	})

	t.Run("restores parameters from run file", func(t *testing.T) {
		workdir := t.TempDir()

		recorded := config.NewConfig()
		recorded.SeedURL = "https://example.com"
		recorded.MaxDepth = 2
		recorded.MaxAttempts = 4
		recorded.CrawlDelay = 300 * time.Millisecond
		recorded.Timeout = 9 * time.Second
		recorded.UserAgent = "restored-agent"
		if err := recorded.WriteRunFile(workdir); err != nil {
			t.Fatalf("failed to write run file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("workdir", workdir)
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxDepth != 2 {
			t.Errorf("expected restored MaxDepth 2, got %d", cfg.MaxDepth)
		}
		if cfg.MaxAttempts != 4 {
			t.Errorf("expected restored MaxAttempts 4, got %d", cfg.MaxAttempts)
		}
		if cfg.CrawlDelay != 300*time.Millisecond {
			t.Errorf("expected restored delay 300ms, got %v", cfg.CrawlDelay)
		}
		if cfg.Timeout != 9*time.Second {
			t.Errorf("expected restored timeout 9s, got %v", cfg.Timeout)
		}
		if cfg.UserAgent != "restored-agent" {
			t.Errorf("expected restored user agent, got %q", cfg.UserAgent)
		}
	})

	t.Run("explicit flag beats run file", func(t *testing.T) {
		workdir := t.TempDir()

		recorded := config.NewConfig()
		recorded.SeedURL = "https://example.com"
		recorded.MaxDepth = 2
		recorded.MaxAttempts = 4
		if err := recorded.WriteRunFile(workdir); err != nil {
			t.Fatalf("failed to write run file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("workdir", workdir)
		_ = cmd.Flags().Set("max-attempts", "7")
		cfg, err := buildCrawlConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxAttempts != 7 {
			t.Errorf("expected explicit MaxAttempts 7, got %d", cfg.MaxAttempts)
		}
		// The depth flag was not given, so the recorded value still wins.
		if cfg.MaxDepth != 2 {
			t.Errorf("expected restored MaxDepth 2, got %d", cfg.MaxDepth)
		}
	})
}

// TestPurgeWorkdir tests that --purge removes crawl state but keeps the
// lock file.
func TestPurgeWorkdir(t *testing.T) {
	t.Parallel()

	workdir := t.TempDir()

	// Lay out a used working directory.
	files := []string{
		state.DBFileName,
		state.DBFileName + "-wal",
		config.RunFileName,
		log.FileName,
		report.ReportFileName,
		report.WordCountsFileName,
		lockfile.FileName,
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(workdir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	for _, dir := range []string{contentstore.PagesDirName, contentstore.TextDirName, contentstore.WordsDirName} {
		if err := os.MkdirAll(filepath.Join(workdir, dir, "sub"), 0750); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(workdir, dir, "sub", "index.html"), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to fill %s: %v", dir, err)
		}
	}

	if err := purgeWorkdir(workdir); err != nil {
		t.Fatalf("purgeWorkdir() error = %v", err)
	}

	t.Run("removes crawl state", func(t *testing.T) {
		t.Parallel()
		removed := []string{
			state.DBFileName,
			state.DBFileName + "-wal",
			config.RunFileName,
			log.FileName,
			report.ReportFileName,
			report.WordCountsFileName,
			contentstore.PagesDirName,
			contentstore.TextDirName,
			contentstore.WordsDirName,
		}
		for _, name := range removed {
			if _, err := os.Stat(filepath.Join(workdir, name)); !os.IsNotExist(err) {
				t.Errorf("expected %s to be removed", name)
			}
		}
	})

	t.Run("keeps the lock file", func(t *testing.T) {
		t.Parallel()
		if _, err := os.Stat(filepath.Join(workdir, lockfile.FileName)); err != nil {
			t.Errorf("expected lock file to survive purge: %v", err)
		}
	})

	t.Run("keeps unrelated files", func(t *testing.T) {
		t.Parallel()
		if _, err := os.Stat(filepath.Join(workdir, "notes.txt")); err != nil {
			t.Errorf("expected unrelated file to survive purge: %v", err)
		}
	})
}

// TestRunCrawlCmdInvalidSeed tests that the crawl command rejects a
// seed that is not an absolute http(s) URL.
func TestRunCrawlCmdInvalidSeed(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"crawl", "not-a-url", "-w", t.TempDir()})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for invalid seed URL")
	}
	if !strings.Contains(err.Error(), "invalid seed URL") {
		t.Errorf("expected 'invalid seed URL' error, got: %v", err)
	}
}

// TestRunCrawlCmdMissingSeed tests that the crawl command requires a
// seed argument.
func TestRunCrawlCmdMissingSeed(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"crawl"})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error for missing seed argument")
	}
}
