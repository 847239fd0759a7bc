package crawler

import (
	"net/url"
	"strings"
)

// Normalize parses a raw URL and returns its canonical string. Two URLs
// that normalize identically are the same URL for deduplication purposes.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return NormalizeURL(u), nil
}

// NormalizeURL returns the canonical string for a parsed URL:
//
//   - fragment dropped (#anchor does not change the document)
//   - scheme and host lowercased
//   - empty path becomes "/", trailing slash stripped elsewhere
//   - query parameters re-encoded in sorted key order
//
// The input URL is not modified.
func NormalizeURL(u *url.URL) string {
	c := *u

	c.Fragment = ""
	c.RawFragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)

	switch {
	case c.Path == "":
		c.Path = "/"
	case c.Path != "/":
		c.Path = strings.TrimSuffix(c.Path, "/")
	}

	// url.Values.Encode emits keys in sorted order, which makes query
	// ordering irrelevant for deduplication.
	if c.RawQuery != "" {
		c.RawQuery = c.Query().Encode()
	}

	return c.String()
}
