package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"

	"webcorpus/internal/config"
)

// Fetcher downloads pages over HTTP. Every request passes through the
// politeness gate before it is sent, carries a browser-like header set,
// and reads at most maxBodySize bytes of the response.
type Fetcher struct {
	client      *http.Client
	gate        *Gate
	userAgent   string
	headers     map[string]string
	maxBodySize int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds extra request headers sent with every fetch.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize caps the number of response bytes read per page.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// NewFetcher creates a fetcher using the given HTTP client and politeness
// gate. A nil client falls back to one with the default timeout.
func NewFetcher(client *http.Client, gate *Gate, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultTimeout}
	}
	f := &Fetcher{
		client:      client,
		gate:        gate,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the page at rawURL. It returns the body bytes, the raw
// Content-Type header, and a *FetchError classifying any failure. A fetch
// that has already started is allowed to complete even if ctx is cancelled;
// only the wait at the gate is interruptible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if f.gate != nil {
		if err := f.gate.Wait(ctx); err != nil {
			return nil, "", &FetchError{URL: rawURL, Kind: FailCancelled, Err: err}
		}
	}

	// The request context is detached from ctx so a cancellation drains
	// gracefully instead of aborting mid-transfer. The client's own
	// timeout still bounds the request.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Kind: FailNetwork, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, "", &FetchError{
			URL:        rawURL,
			Kind:       FailHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, "", &FetchError{
			URL:  rawURL,
			Kind: FailUnsupportedContentType,
			Err:  fmt.Errorf("content type %q is not HTML", contentType),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, "", &FetchError{URL: rawURL, Kind: classifyTransportError(err), Err: err}
	}

	return body, contentType, nil
}

// isHTMLContentType reports whether the Content-Type header denotes an
// HTML document. An empty header is treated as HTML since many servers
// omit it for pages.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// classifyTransportError maps a transport-level error to a failure kind.
func classifyTransportError(err error) FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	return FailNetwork
}
