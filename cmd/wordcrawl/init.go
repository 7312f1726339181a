package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wordcrawl/wordcrawl/internal/config"
)

//go:embed templates/wordcrawl.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wordcrawl settings file",
		Long: `Init creates a new .wordcrawl settings file in the current directory.

The generated file includes:
- Default settings for crawl depth, attempts, and politeness delay
- Commented examples for per-site overrides
- Documentation for all available options

Examples:
  # Create .wordcrawl in current directory
  wordcrawl init

  # Create settings file at a specific path
  wordcrawl init -o myconfig.yaml

  # Force overwrite existing file
  wordcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the settings file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing settings file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("settings file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/wordcrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read settings template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write settings file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	fmt.Printf("Created settings file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure per-site settings such as:")
	fmt.Println("  - Crawl depth and attempt budget per site")
	fmt.Println("  - Politeness delay between requests")
	fmt.Println("  - The User-Agent header the crawler identifies with")

	return nil
}
