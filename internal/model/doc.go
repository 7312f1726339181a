// Package model defines the core data structures used throughout wordcrawl.
//
// This package contains the following main types:
//   - Page: A single URL in the durable crawl frontier with its lifecycle state
//   - Session: The identity of a crawl (seed URL and depth limit) pinned to a working directory
//   - CrawlReport: The aggregated view of a finished or in-progress crawl used by report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (state, crawler, report) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
