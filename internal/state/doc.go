// Package state provides the durable SQLite store behind a wordcrawl
// working directory.
//
// One database file (state.db) holds everything a crawl needs to resume
// after a crash or kill:
//   - The frontier: one row per discovered URL with depth, status,
//     attempt count, and last error
//   - The word tally: aggregated word counts across all visited pages
//   - The session record: the seed URL and depth limit the directory
//     was created for
//   - The attempt log: a per-fetch audit trail across all runs
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode gives the durability the resume contract requires while
//    allowing concurrent readers (progress tooling) alongside the writer
// 4. Single-file state keeps the working directory self-contained
//
// Every mutating operation runs in a single transaction, so a crash
// between any two operations leaves the store consistent: at worst a
// page is re-attempted, never half-recorded.
package state
