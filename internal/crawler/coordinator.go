package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"webcorpus/internal/model"
)

// Termination describes why a crawl stopped.
type Termination string

const (
	// TerminationExhausted means the frontier drained naturally.
	TerminationExhausted Termination = "frontier-exhausted"
	// TerminationPageLimit means the page ceiling was reached.
	TerminationPageLimit Termination = "page-limit"
	// TerminationCancelled means the run was interrupted.
	TerminationCancelled Termination = "cancelled"
)

// PageFetcher downloads a single page and returns its body and raw
// Content-Type header.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// ContentExtractor turns a fetched HTML body into a structured document.
type ContentExtractor interface {
	Extract(pageURL string, body []byte, contentType string) *model.StructuredDocument
}

// Crawler walks a site breadth-first from a single seed URL, bounded by
// depth and an optional page ceiling, and collects structured documents.
type Crawler struct {
	seed      *url.URL
	seedStr   string
	scope     *Scope
	fetcher   PageFetcher
	extractor ContentExtractor
	maxDepth  int
	maxPages  int
	workers   int
	logger    *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth bounds link traversal. The seed is depth 0.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) { c.maxDepth = depth }
}

// WithMaxPages caps the number of pages fetched. Zero means no cap.
func WithMaxPages(n int) Option {
	return func(c *Crawler) { c.maxPages = n }
}

// WithWorkers sets the number of concurrent fetch workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithAllowedHosts admits extra hosts into the crawl scope alongside the
// seed host.
func WithAllowedHosts(hosts []string) Option {
	return func(c *Crawler) { c.scope = NewScope(c.seed, hosts) }
}

// WithLogger sets the structured logger used for per-page progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a crawler rooted at seedURL. The seed is normalized and
// anchors the crawl scope: only pages on the same host beneath the seed's
// base path are followed.
func New(seedURL string, fetcher PageFetcher, extractor ContentExtractor, opts ...Option) (*Crawler, error) {
	normalized, err := Normalize(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid seed URL %q: scheme must be http or https", seedURL)
	}
	if fetcher == nil {
		return nil, errors.New("crawler: fetcher must not be nil")
	}
	if extractor == nil {
		return nil, errors.New("crawler: extractor must not be nil")
	}

	c := &Crawler{
		seed:      u,
		seedStr:   normalized,
		fetcher:   fetcher,
		extractor: extractor,
		maxDepth:  0,
		workers:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scope == nil {
		c.scope = NewScope(c.seed, nil)
	}
	return c, nil
}

// Result holds everything a finished crawl produced.
type Result struct {
	Seed        string
	Corpus      *model.Corpus
	Records     map[string]*model.PageRecord
	Attempted   []string
	Extracted   []string
	Termination Termination
	Started     time.Time
	Finished    time.Time
}

// Fetched counts pages whose fetch and parse succeeded.
func (r *Result) Fetched() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == model.StatusFetched {
			n++
		}
	}
	return n
}

// Failed counts pages whose fetch failed.
func (r *Result) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == model.StatusFailed {
			n++
		}
	}
	return n
}

type task struct {
	url   string
	depth int
}

type outcome struct {
	task        task
	doc         *model.StructuredDocument
	links       []string
	contentHash string
	err         error
}

// Run executes the crawl. It always returns a usable Result: a cancelled
// or partially failed run still reports every page it reached. The only
// error returns are programming mistakes caught up front.
//
// Cancellation is graceful. Once ctx is done no new pages are dispatched,
// but fetches already in flight run to completion and their results are
// kept.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Seed:        c.seedStr,
		Corpus:      model.NewCorpus(),
		Records:     make(map[string]*model.PageRecord),
		Termination: TerminationExhausted,
		Started:     time.Now(),
	}

	tasks := make(chan task)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, tasks, outcomes)
		}()
	}

	frontier := []task{{url: c.seedStr, depth: 0}}
	seen := map[string]bool{c.seedStr: true}
	extracted := make(map[string]bool)
	pending := 0
	dispatched := 0
	cancelled := false
	cancelCh := ctx.Done()

	for {
		var sendCh chan task
		var next task
		if !cancelled && len(frontier) > 0 && (c.maxPages <= 0 || dispatched < c.maxPages) {
			sendCh = tasks
			next = frontier[0]
		}

		if sendCh == nil && pending == 0 {
			break
		}

		select {
		case sendCh <- next:
			frontier = frontier[1:]
			pending++
			dispatched++
			res.Attempted = append(res.Attempted, next.url)
			res.Records[next.url] = &model.PageRecord{
				URL:    next.url,
				Depth:  next.depth,
				Status: model.StatusPending,
			}
			c.logger.Debug("dispatching page", "url", next.url, "depth", next.depth)

		case out := <-outcomes:
			pending--
			c.finish(res, out, seen, extracted, &frontier, cancelled)

		case <-cancelCh:
			cancelled = true
			cancelCh = nil
			res.Termination = TerminationCancelled
			c.logger.Info("crawl cancelled, draining in-flight fetches", "pending", pending)
		}
	}

	close(tasks)
	wg.Wait()

	if !cancelled && c.maxPages > 0 && dispatched >= c.maxPages && len(frontier) > 0 {
		res.Termination = TerminationPageLimit
	}

	res.Finished = time.Now()
	c.logger.Info("crawl finished",
		"seed", c.seedStr,
		"fetched", res.Fetched(),
		"failed", res.Failed(),
		"termination", string(res.Termination),
		"duration", res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res, nil
}

// finish folds one page outcome into the result and grows the frontier
// with newly discovered in-scope links.
func (c *Crawler) finish(res *Result, out outcome, seen, extracted map[string]bool, frontier *[]task, cancelled bool) {
	rec := res.Records[out.task.url]
	rec.FetchedAt = time.Now()

	if out.err != nil {
		rec.Status = model.StatusFailed
		var fe *FetchError
		if errors.As(out.err, &fe) {
			rec.FailureKind = string(fe.Kind)
			rec.StatusCode = fe.StatusCode
		}
		c.logger.Warn("page fetch failed", "url", out.task.url, "depth", out.task.depth, "error", out.err)
		return
	}

	rec.Status = model.StatusFetched
	rec.ContentHash = out.contentHash
	if out.doc != nil {
		rec.Title = out.doc.Title
		res.Corpus.Add(out.doc)
	}

	for _, link := range out.links {
		if !extracted[link] {
			extracted[link] = true
			res.Extracted = append(res.Extracted, link)
		}
	}

	if cancelled {
		return
	}

	nextDepth := out.task.depth + 1
	if nextDepth > c.maxDepth {
		return
	}
	for _, link := range out.links {
		if seen[link] || !c.scope.Allows(link) {
			continue
		}
		seen[link] = true
		*frontier = append(*frontier, task{url: link, depth: nextDepth})
	}

	c.logger.Debug("page processed", "url", out.task.url, "depth", out.task.depth, "links", len(out.links))
}

// worker fetches and parses pages until the task channel closes.
func (c *Crawler) worker(ctx context.Context, tasks <-chan task, outcomes chan<- outcome) {
	for t := range tasks {
		out := outcome{task: t}

		body, contentType, err := c.fetcher.Fetch(ctx, t.url)
		if err != nil {
			out.err = err
			outcomes <- out
			continue
		}

		out.contentHash = model.HashContent(body)
		out.doc = c.extractor.Extract(t.url, body, contentType)

		if base, err := url.Parse(t.url); err == nil {
			out.links = ExtractLinks(body, base)
		}

		outcomes <- out
	}
}
