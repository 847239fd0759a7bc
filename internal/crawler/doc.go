// Package crawler implements the breadth-first content-acquisition crawl.
//
// # Architecture
//
// The Crawler type is the coordinator: it owns the frontier (a FIFO of
// discovered URLs with their depths), the seen-set that guarantees each
// URL is fetched at most once, and the corpus being accumulated. A bounded
// pool of workers performs the fetch and extraction; discoveries flow back
// to the coordinator over a channel, so all frontier and seen-set
// mutations happen on a single goroutine and need no locking.
//
// # Components
//
//   - Crawler: the coordinator driving the fetch -> extract -> enqueue loop
//   - Fetcher: a rate-limited HTTP GET with typed failure classification
//   - Gate: the global politeness gate shared by all workers
//   - Scope: host, path-prefix, and extension rules bounding the crawl
//   - ExtractLinks / Normalize: link discovery and URL canonicalization
//
// # Politeness
//
// The Gate spaces outbound requests globally: regardless of worker pool
// size, consecutive requests are separated by at least the configured
// delay. Workers block only on the gate and on the network.
//
// # Termination
//
// A crawl ends when the frontier is empty and no fetch is outstanding,
// when the page-count ceiling is reached, or when the context is
// cancelled. All three are normal completions; whatever was accumulated
// is handed to the persistence sink.
package crawler
