// Package config holds all configuration for webcorpus.
//
// Configuration flows in three layers, later layers overriding earlier ones:
//
//  1. Compiled defaults (the Default* constants)
//  2. The optional .webcorpus YAML file with per-site overrides
//  3. CLI flags
//
// The resulting Config struct is passed through the application via
// dependency injection rather than global state. Validate is called once
// after flag parsing, before any crawling begins.
package config
