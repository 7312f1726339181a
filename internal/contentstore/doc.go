// Package contentstore persists per-page crawl artifacts under the
// working directory: raw bodies in pages/, extracted text in text/,
// and per-page word tallies in words/.
//
// File paths are derived from the page URL relative to the crawl
// scope, so the on-disk tree mirrors the site's structure and a
// re-crawled page overwrites its own artifacts in place.
package contentstore
