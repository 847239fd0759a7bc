package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds per-site overrides for a single crawl target. Sites are
// keyed by host name in the config file; everything here layers on top of
// the global defaults.
type SiteConfig struct {
	// Depth overrides the global max depth for this site. Zero means
	// use the global value.
	Depth int `yaml:"depth,omitempty"`

	// Delay overrides the global request delay for this site.
	Delay time.Duration `yaml:"delay,omitempty"`

	// Headers are extra HTTP headers for requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// AllowedSubdomains are additional hosts in scope for this site.
	AllowedSubdomains []string `yaml:"allowedSubdomains,omitempty"`

	// FilterSelectors are additional CSS selectors the content extractor
	// strips for this site (site chrome the built-in denylist misses).
	FilterSelectors []string `yaml:"filterSelectors,omitempty"`
}

// UnmarshalYAML decodes a site entry. Delay is written as a duration
// string ("500ms", "2s"), which the yaml package cannot decode into
// time.Duration on its own.
func (sc *SiteConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Depth             int               `yaml:"depth"`
		Delay             string            `yaml:"delay"`
		Headers           map[string]string `yaml:"headers"`
		AllowedSubdomains []string          `yaml:"allowedSubdomains"`
		FilterSelectors   []string          `yaml:"filterSelectors"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	sc.Depth = raw.Depth
	sc.Headers = raw.Headers
	sc.AllowedSubdomains = raw.AllowedSubdomains
	sc.FilterSelectors = raw.FilterSelectors

	if raw.Delay != "" {
		d, err := time.ParseDuration(raw.Delay)
		if err != nil {
			return fmt.Errorf("invalid delay %q: %w", raw.Delay, err)
		}
		sc.Delay = d
	}
	return nil
}

// File represents the structure of the .webcorpus configuration file.
type File struct {
	// Sites maps host names to their overrides (e.g. "www.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every site unless the site
	// entry overrides them again.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a seed URL. The site
// entry is looked up by the URL's host; file-level defaults fill any fields
// the site entry leaves unset.
func (cf *File) GetSiteConfig(seedURL string) SiteConfig {
	result := cf.Defaults

	host := hostOf(seedURL)
	if host == "" {
		return result
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if site.Delay != 0 {
		result.Delay = site.Delay
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(site.AllowedSubdomains) > 0 {
		result.AllowedSubdomains = site.AllowedSubdomains
	}
	if len(site.FilterSelectors) > 0 {
		merged := make([]string, 0, len(result.FilterSelectors)+len(site.FilterSelectors))
		merged = append(merged, result.FilterSelectors...)
		merged = append(merged, site.FilterSelectors...)
		result.FilterSelectors = merged
	}

	return result
}

// hostOf extracts the lowercase host from a URL string. Accepts bare hosts
// ("www.example.com") as well as full URLs.
func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
