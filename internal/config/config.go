package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the behavior of a polite
// documentation crawler: conservative request spacing, a bounded worker
// pool, and a browser-like client identity.
const (
	// DefaultMaxDepth limits how many link levels to follow from the seed.
	// Depth 0 means only the seed page. Five levels reaches essentially all
	// of a documentation or support subtree without unbounded growth.
	DefaultMaxDepth = 5

	// DefaultDelay is the minimum spacing between outbound requests,
	// enforced globally across all workers. This is the politeness policy:
	// regardless of pool size, the aggregate request rate stays bounded.
	DefaultDelay = 500 * time.Millisecond

	// DefaultTimeout is the per-request timeout. Ordinary clearnet pages
	// respond well within this; slower responses are treated as timeouts
	// and the URL is marked failed.
	DefaultTimeout = 15 * time.Second

	// DefaultWorkers is the fetch worker pool size. Workers share the
	// global request gate, so more workers increase overlap of slow
	// responses rather than the request rate.
	DefaultWorkers = 4

	// DefaultMaxPages is the page-count ceiling. Zero means unbounded;
	// the depth ceiling is then the only growth bound.
	DefaultMaxPages = 0

	// DefaultBatchSize is the number of seeds crawled concurrently when
	// several are given.
	DefaultBatchSize = 2

	// DefaultOutputDir is where the crawl artifacts are written.
	DefaultOutputDir = "./data"

	// DefaultUserAgent is a browser-like identity. Some documentation
	// sites serve reduced or blocked content to obvious bot agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB covers any realistic HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "webcorpus"
)

// Config holds all options for a crawl run. It is populated from defaults,
// the optional .webcorpus file, and CLI flags, then validated once.
type Config struct {
	// Seeds are the base URLs to crawl. Each seed is crawled within its
	// own scope (host + path prefix) into its own output location.
	Seeds []string

	// MaxDepth is the maximum link depth from the seed. The seed is depth
	// 0; links found on the seed page are depth 1, and so on. URLs beyond
	// MaxDepth are never enqueued.
	MaxDepth int

	// Delay is the minimum spacing between outbound HTTP requests,
	// applied globally across the worker pool.
	Delay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Workers is the number of concurrent fetch workers.
	Workers int

	// MaxPages is the page-count ceiling. When the number of dispatched
	// fetches reaches this value the crawl terminates normally. Zero
	// means no page-count bound.
	MaxPages int

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// OutputDir is the directory receiving the crawl artifacts. Created
	// if it does not exist.
	OutputDir string

	// UserAgent is the User-Agent header for all requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// AllowedSubdomains lists additional hosts treated as in scope beyond
	// the seed host itself (e.g. "docs" to allow docs.example.com when
	// crawling example.com).
	AllowedSubdomains []string

	// FilterSelectors are additional CSS selectors stripped by the
	// content extractor on top of the built-in structural denylist.
	FilterSelectors []string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// ConfigFilePath is the explicit path to the .webcorpus file. Empty
	// means search the current directory and then the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// Report enables writing the markdown crawl summary alongside the
	// data artifacts.
	Report bool

	// SaveToDB records the run in the crawl-history database.
	SaveToDB bool

	// SkipRecent skips seeds already crawled within this duration
	// according to the history database. Zero disables the check.
	SkipRecent time.Duration

	// DBDir is the directory holding the crawl-history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be wrong; this constructor also
// documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		Delay:       DefaultDelay,
		Timeout:     DefaultTimeout,
		Workers:     DefaultWorkers,
		MaxPages:    DefaultMaxPages,
		BatchSize:   DefaultBatchSize,
		OutputDir:   DefaultOutputDir,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for webcorpus.
// On Linux: ~/.local/share/webcorpus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Fixing one error often makes others irrelevant, so errors are not
// collected.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SkipRecent < 0 {
		return ErrInvalidSkipRecent
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	return nil
}

// ForSite returns a copy of the Config with any per-site overrides from the
// config file applied for the given seed URL.
func (c *Config) ForSite(seedURL string) *Config {
	if c.SiteConfigs == nil {
		return c
	}

	site := c.SiteConfigs.GetSiteConfig(seedURL)
	out := *c

	if site.Depth > 0 {
		out.MaxDepth = site.Depth
	}
	if site.Delay > 0 {
		out.Delay = site.Delay
	}
	if len(site.AllowedSubdomains) > 0 {
		out.AllowedSubdomains = appendCopy(c.AllowedSubdomains, site.AllowedSubdomains)
	}
	if len(site.FilterSelectors) > 0 {
		out.FilterSelectors = appendCopy(c.FilterSelectors, site.FilterSelectors)
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(out.Headers)+len(site.Headers))
		for k, v := range out.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		out.Headers = merged
	}

	return &out
}

// appendCopy concatenates two slices into a fresh backing array so that
// per-site overrides never mutate the shared base configuration.
func appendCopy(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}
