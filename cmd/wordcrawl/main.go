// Package main provides the entry point for the wordcrawl CLI.
//
// Wordcrawl is a resumable single-site crawler: it walks one website
// breadth-first from a seed URL, saves every page it downloads, and
// tallies how often each word appears across the site.
//
// Usage:
//
//	wordcrawl crawl <seed-url>
//	wordcrawl report <seed-url>
//	wordcrawl status <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for wordcrawl.
func main() {
	Execute()
}
