// Package database provides SQLite-based storage for crawl history.
//
// This package implements the CrawlDB, which stores:
//   - One run row per finished crawl with its summary counters
//   - One page row per URL the run dispatched for fetching
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
