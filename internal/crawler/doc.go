// Package crawler fetches pages breadth-first within the seed's scope
// and applies every outcome to the durable state store.
//
// The spider owns no crawl state of its own: the frontier, retry
// counts, and word tallies all live in the store, which is what makes
// an interrupted crawl resumable. Fetch failures are tagged transient
// or permanent, and a pure retry policy turns each attempt's outcome
// into a verdict the loop applies mechanically.
package crawler
