// Package config provides configuration structures and utilities for
// wordcrawl. It defines the crawl options populated from CLI flags, the
// optional YAML settings file with per-site overrides, and the
// config.json run parameter file written into each working directory.
package config
