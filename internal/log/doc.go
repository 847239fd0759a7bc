// Package log provides the structured logging setup for webcorpus.
//
// It wraps a standard slog.Handler with crawl-specific hygiene: request
// header values that carry credentials (per-site headers from the config
// file may include Authorization or Cookie values) are masked, and
// oversized string attributes such as raw HTML snippets or long URL lists
// are truncated so a single log record cannot flood the output.
//
// The wrapper integrates with standard slog APIs and works with any
// underlying handler (text, JSON).
package log
