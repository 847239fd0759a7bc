package crawler

import "fmt"

// FailureKind categorizes why a fetch failed. All fetch failures are
// non-fatal to the crawl: the URL is marked failed and the coordinator
// proceeds.
type FailureKind string

// Fetch failure kinds.
const (
	// FailTimeout means the request exceeded the per-request timeout.
	FailTimeout FailureKind = "timeout"

	// FailHTTPStatus means the server answered with a non-2xx status.
	FailHTTPStatus FailureKind = "http-status"

	// FailNetwork means the connection could not be established or broke.
	FailNetwork FailureKind = "network"

	// FailUnsupportedContentType means the response was not HTML.
	FailUnsupportedContentType FailureKind = "unsupported-content-type"

	// FailCancelled means the crawl was shut down while the fetch was
	// still waiting at the politeness gate. No request was issued.
	FailCancelled FailureKind = "cancelled"
)

// FetchError is the typed failure returned by Fetcher.Fetch.
type FetchError struct {
	// URL is the URL whose fetch failed.
	URL string

	// Kind is the failure category.
	Kind FailureKind

	// StatusCode is the HTTP status code for FailHTTPStatus failures.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch e.Kind {
	case FailHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case FailUnsupportedContentType:
		return fmt.Sprintf("fetch %s: unsupported content type", e.URL)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
		}
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchError) Unwrap() error {
	return e.Err
}
