package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"webcorpus/internal/model"
)

// stubExtractor produces a minimal document per page so coordinator tests
// do not depend on real content extraction.
type stubExtractor struct{}

func (stubExtractor) Extract(pageURL string, body []byte, contentType string) *model.StructuredDocument {
	return &model.StructuredDocument{
		URL:        pageURL,
		Title:      pageURL,
		Paragraphs: []string{"content"},
	}
}

// countingServer serves a fixed set of HTML pages and counts requests per
// path.
type countingServer struct {
	*httptest.Server
	mu     sync.Mutex
	counts map[string]int
}

func newCountingServer(t *testing.T, pages map[string]string) *countingServer {
	t.Helper()

	cs := &countingServer{counts: make(map[string]int)}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.counts[r.URL.Path]++
		cs.mu.Unlock()

		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page) //nolint:errcheck
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *countingServer) count(path string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.counts[path]
}

func newTestCrawler(t *testing.T, srv *countingServer, seedPath string, opts ...Option) *Crawler {
	t.Helper()

	fetcher := NewFetcher(srv.Client(), nil)
	c, err := New(srv.URL+seedPath, fetcher, stubExtractor{}, opts...)
	if err != nil {
		t.Fatalf("failed to create crawler: %v", err)
	}
	return c
}

// TestCrawlScenario tests scope containment, fragment deduplication, and
// the visited set for a small documentation site.
func TestCrawlScenario(t *testing.T) {
	t.Parallel()

	srv := newCountingServer(t, map[string]string{
		"/docs": `<html><body>
			<a href="/docs/a">In scope</a>
			<a href="https://other.example/x">Out of scope</a>
			<a href="/docs/a#section">Fragment duplicate</a>
		</body></html>`,
		"/docs/a": `<html><body><p>Leaf page</p></body></html>`,
	})

	c := newTestCrawler(t, srv, "/docs", WithMaxDepth(1), WithWorkers(2))
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Attempted) != 2 {
		t.Fatalf("expected 2 attempted URLs, got %d: %v", len(res.Attempted), res.Attempted)
	}
	if res.Corpus.Len() != 2 {
		t.Errorf("expected 2 documents, got %d", res.Corpus.Len())
	}
	if got := srv.count("/docs/a"); got != 1 {
		t.Errorf("/docs/a fetched %d times, want 1", got)
	}
	if res.Termination != TerminationExhausted {
		t.Errorf("Termination = %q, want %q", res.Termination, TerminationExhausted)
	}
	for _, rec := range res.Records {
		if rec.Status != model.StatusFetched {
			t.Errorf("record %s has status %q, want fetched", rec.URL, rec.Status)
		}
	}
}

// TestCrawlDepthBound tests that link traversal stops at the configured
// depth.
func TestCrawlDepthBound(t *testing.T) {
	t.Parallel()

	srv := newCountingServer(t, map[string]string{
		"/":     `<html><body><a href="/level1">L1</a></body></html>`,
		"/level1": `<html><body><a href="/level1/level2">L2</a></body></html>`,
		"/level1/level2": `<html><body><a href="/level1/level2/level3">L3</a></body></html>`,
		"/level1/level2/level3": `<html><body>deep</body></html>`,
	})

	c := newTestCrawler(t, srv, "/", WithMaxDepth(2))
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Attempted) != 3 {
		t.Errorf("expected 3 attempted URLs at depth <= 2, got %d: %v", len(res.Attempted), res.Attempted)
	}
	if got := srv.count("/level1/level2/level3"); got != 0 {
		t.Errorf("depth-3 page fetched %d times, want 0", got)
	}
	for _, rec := range res.Records {
		if rec.Depth > 2 {
			t.Errorf("record %s has depth %d, want <= 2", rec.URL, rec.Depth)
		}
	}
}

// TestCrawlNoDuplicateFetch tests that a URL discovered from several
// referring pages is fetched once.
func TestCrawlNoDuplicateFetch(t *testing.T) {
	t.Parallel()

	srv := newCountingServer(t, map[string]string{
		"/": `<html><body>
			<a href="/a">A</a>
			<a href="/b">B</a>
		</body></html>`,
		"/a":      `<html><body><a href="/shared">S</a></body></html>`,
		"/b":      `<html><body><a href="/shared">S</a></body></html>`,
		"/shared": `<html><body>shared</body></html>`,
	})

	c := newTestCrawler(t, srv, "/", WithMaxDepth(3), WithWorkers(4))
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, p := range []string{"/", "/a", "/b", "/shared"} {
		if got := srv.count(p); got != 1 {
			t.Errorf("%s fetched %d times, want 1", p, got)
		}
	}
}

// TestCrawlPartialFailure tests that failing pages are recorded and do not
// stop the crawl.
func TestCrawlPartialFailure(t *testing.T) {
	t.Parallel()

	srv := newCountingServer(t, map[string]string{
		"/": `<html><body>
			<a href="/good">Good</a>
			<a href="/missing">Missing</a>
		</body></html>`,
		"/good": `<html><body>fine</body></html>`,
	})

	c := newTestCrawler(t, srv, "/", WithMaxDepth(1))
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Attempted) != 3 {
		t.Fatalf("expected 3 attempted URLs, got %d: %v", len(res.Attempted), res.Attempted)
	}
	if res.Fetched() != 2 {
		t.Errorf("Fetched() = %d, want 2", res.Fetched())
	}
	if res.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", res.Failed())
	}

	failed := res.Records[srv.URL+"/missing"]
	if failed == nil {
		t.Fatal("missing page has no record")
	}
	if failed.Status != model.StatusFailed {
		t.Errorf("failed page status = %q, want failed", failed.Status)
	}
	if failed.FailureKind != string(FailHTTPStatus) {
		t.Errorf("FailureKind = %q, want %q", failed.FailureKind, FailHTTPStatus)
	}
	if failed.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", failed.StatusCode)
	}
	if _, ok := res.Corpus.Get(srv.URL + "/missing"); ok {
		t.Error("failed page must not appear in the corpus")
	}
}

// TestCrawlPageLimit tests the page ceiling.
func TestCrawlPageLimit(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/": `<html><body>
			<a href="/p1">1</a><a href="/p2">2</a><a href="/p3">3</a><a href="/p4">4</a>
		</body></html>`,
	}
	for _, p := range []string{"/p1", "/p2", "/p3", "/p4"} {
		pages[p] = `<html><body>page</body></html>`
	}
	srv := newCountingServer(t, pages)

	c := newTestCrawler(t, srv, "/", WithMaxDepth(5), WithMaxPages(2))
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(res.Attempted) != 2 {
		t.Errorf("expected 2 attempted URLs under the page limit, got %d", len(res.Attempted))
	}
	if res.Termination != TerminationPageLimit {
		t.Errorf("Termination = %q, want %q", res.Termination, TerminationPageLimit)
	}
}

// TestCrawlCancellation tests that cancelling the context stops dispatch
// but keeps the partial result.
func TestCrawlCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			// Cancel during the first non-seed fetch and let it finish.
			once.Do(cancel)
			time.Sleep(20 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="%s/next%d">n</a></body></html>`, "", time.Now().UnixNano()) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(srv.Client(), nil)
	c, err := New(srv.URL+"/", fetcher, stubExtractor{}, WithMaxDepth(100))
	if err != nil {
		t.Fatalf("failed to create crawler: %v", err)
	}

	res, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if res.Termination != TerminationCancelled {
		t.Errorf("Termination = %q, want %q", res.Termination, TerminationCancelled)
	}
	if len(res.Attempted) == 0 {
		t.Error("expected at least the seed to be attempted")
	}
	// Every dispatched fetch ran to completion despite the cancellation.
	for _, rec := range res.Records {
		if rec.Status == model.StatusPending {
			t.Errorf("record %s left pending after drain", rec.URL)
		}
	}
}

// TestCrawlInvalidSeed tests constructor validation.
func TestCrawlInvalidSeed(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(nil, nil)
	if _, err := New("ftp://example.com/", fetcher, stubExtractor{}); err == nil {
		t.Error("expected error for non-http seed")
	}
	if _, err := New("://bad", fetcher, stubExtractor{}); err == nil {
		t.Error("expected error for malformed seed")
	}
	if _, err := New("https://example.com/", nil, stubExtractor{}); err == nil {
		t.Error("expected error for nil fetcher")
	}
	if _, err := New("https://example.com/", fetcher, nil); err == nil {
		t.Error("expected error for nil extractor")
	}
}

// TestBatchRunner tests multi-seed crawling.
func TestBatchRunner(t *testing.T) {
	t.Parallel()

	srv := newCountingServer(t, map[string]string{
		"/one": `<html><body>one</body></html>`,
		"/two": `<html><body>two</body></html>`,
	})

	var mu sync.Mutex
	results := make(map[int]*Result)

	factory := func(seed string) (*Crawler, error) {
		return New(seed, NewFetcher(srv.Client(), nil), stubExtractor{})
	}
	callback := func(index int, result *Result) {
		mu.Lock()
		defer mu.Unlock()
		results[index] = result
	}

	runner := NewBatchRunner(factory, callback, 2)
	seeds := []string{srv.URL + "/one", srv.URL + "/two"}
	if err := runner.Run(context.Background(), seeds); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, seed := range seeds {
		res := results[i]
		if res == nil {
			t.Fatalf("no result for seed %d", i)
		}
		if res.Seed != seed {
			t.Errorf("result[%d].Seed = %q, want %q", i, res.Seed, seed)
		}
		if res.Fetched() != 1 {
			t.Errorf("result[%d].Fetched() = %d, want 1", i, res.Fetched())
		}
	}

	t.Run("a failing seed does not stop the batch", func(t *testing.T) {
		var count int
		var cmu sync.Mutex
		cb := func(index int, result *Result) {
			cmu.Lock()
			count++
			cmu.Unlock()
		}
		runner := NewBatchRunner(factory, cb, 1)
		err := runner.Run(context.Background(), []string{"ftp://bad-seed/", srv.URL + "/one"})
		if err == nil {
			t.Error("expected error from the invalid seed")
		}
		cmu.Lock()
		defer cmu.Unlock()
		if count != 1 {
			t.Errorf("expected 1 successful result, got %d", count)
		}
	})
}
