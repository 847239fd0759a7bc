// Package main provides the entry point for the webcorpus CLI.
//
// webcorpus is a breadth-first documentation crawler. It fetches pages
// within a bounded host and path scope, extracts structured text, and
// persists the results as a corpus for retrieval pipelines.
//
// Usage:
//
//	webcorpus crawl <url>
//	webcorpus crawl --depth 3 --delay 1s <url>
//
// See --help for all available options.
package main

// main is the entry point for webcorpus.
func main() {
	Execute()
}
