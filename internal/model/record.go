package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FetchStatus is the lifecycle state of a URL record.
// A record transitions from pending to fetched or failed exactly once.
type FetchStatus string

// Fetch status values.
const (
	// StatusPending means the URL has been discovered but not yet fetched.
	StatusPending FetchStatus = "pending"

	// StatusFetched means the URL was fetched and its content extracted.
	StatusFetched FetchStatus = "fetched"

	// StatusFailed means the fetch failed; FailureKind records why.
	StatusFailed FetchStatus = "failed"
)

// PageRecord tracks the crawl state of a single discovered URL.
type PageRecord struct {
	// URL is the normalized absolute URL.
	URL string `json:"url"`

	// Depth is the link depth at which the URL was first discovered.
	// The seed URL has depth 0.
	Depth int `json:"depth"`

	// Status is the current lifecycle state.
	Status FetchStatus `json:"status"`

	// FailureKind names the fetch failure category when Status is failed
	// (timeout, http-status, network, unsupported-content-type).
	FailureKind string `json:"failure_kind,omitempty"`

	// StatusCode is the HTTP status code, when a response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Title is the extracted document title, when Status is fetched.
	Title string `json:"title,omitempty"`

	// ContentHash is the SHA-256 hex digest of the raw response body.
	// Used for change detection across runs in the crawl-history database.
	ContentHash string `json:"content_hash,omitempty"`

	// FetchedAt is when the fetch attempt completed.
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// HashContent returns the SHA-256 hex digest of a raw response body.
// An empty body hashes to the empty string.
func HashContent(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
