// Package sink persists crawl results to the output directory.
//
// A finished crawl produces four artifacts: website_data.json with the
// structured per-URL records, website_text.txt with the flattened text
// corpus, visited_urls.txt with every URL that was dispatched for
// fetching, and extracted_urls.txt with every successfully fetched URL.
// Writes are atomic per file so an interrupted flush never leaves a
// half-written artifact behind. Any write failure is fatal to the run;
// a crawl with no output has no value.
package sink
