package config

import "errors"

// Configuration validation errors returned by Config.Validate. They are
// package-level sentinels so callers can use errors.Is for programmatic
// handling while still getting human-readable messages.
var (
	// ErrNoSeed is returned when no seed URL is provided.
	ErrNoSeed = errors.New("no seed URL specified: provide one or more base URLs as arguments")

	// ErrInvalidDepth is returned when the max depth is negative.
	// Depth 0 is valid and crawls only the seed page.
	ErrInvalidDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidDelay is returned when the request delay is negative.
	// Use 0 to disable the politeness delay.
	ErrInvalidDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker pool size is not
	// positive. Zero workers would mean no fetching at all.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxPages is returned when the page ceiling is negative.
	// Use 0 to disable the page-count bound.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidBatchSize is returned when the seed concurrency is not
	// positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size cap is
	// negative. Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSkipRecent is returned when the recrawl window is
	// negative. Use 0 to disable the recent-run check.
	ErrInvalidSkipRecent = errors.New("invalid skip-recent window: must be non-negative")

	// ErrNoOutputDir is returned when the output directory is empty.
	// A crawl with nowhere to write its artifacts has no value.
	ErrNoOutputDir = errors.New("no output directory specified")
)
