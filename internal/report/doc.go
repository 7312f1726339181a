// Package report builds crawl report snapshots and writes them in
// different output formats:
//   - TextWriter: Human-readable text for report.txt and the terminal
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for documentation and sharing
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. Collect reads the state database once into a model.CrawlReport
// snapshot, and writers are pure formatting code over that snapshot. This
// allows adding new output formats without modifying the core data
// structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
