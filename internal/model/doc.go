// Package model defines the data structures shared across the crawler.
//
// The central types are:
//
//   - StructuredDocument: the per-page extraction result (title, headings,
//     paragraphs, lists) together with its flattened plain-text rendition
//   - PageRecord: per-URL crawl bookkeeping (depth, fetch status, failure kind)
//   - Corpus: the URL -> StructuredDocument aggregate built over one crawl run
//
// All types in this package are plain data with no I/O. A StructuredDocument
// is immutable once produced by the extractor; the Corpus is mutated only by
// the crawl coordinator and handed to the persistence sink as a snapshot.
package model
