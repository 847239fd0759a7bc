package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CrawlerFactory builds a crawler for one seed. It runs once per seed in
// a batch.
type CrawlerFactory func(seed string) (*Crawler, error)

// BatchCallback receives each finished crawl result with its seed index.
// Implementations must be safe for concurrent use.
type BatchCallback func(index int, result *Result)

// BatchRunner crawls several seeds concurrently with a bounded number of
// simultaneous crawls. A failing seed does not stop the rest of the batch.
type BatchRunner struct {
	factory     CrawlerFactory
	callback    BatchCallback
	concurrency int
}

// NewBatchRunner creates a runner that invokes factory for each seed and
// callback for each result. Concurrency values below one run the seeds
// one at a time.
func NewBatchRunner(factory CrawlerFactory, callback BatchCallback, concurrency int) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		factory:     factory,
		callback:    callback,
		concurrency: concurrency,
	}
}

// Run crawls all seeds and returns the first error encountered, after
// every seed has been attempted. Crawl results are delivered through the
// callback as they complete.
func (b *BatchRunner) Run(ctx context.Context, seeds []string) error {
	g := &errgroup.Group{}
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			c, err := b.factory(seed)
			if err != nil {
				return err
			}
			result, err := c.Run(ctx)
			if err != nil {
				return err
			}
			if b.callback != nil {
				b.callback(i, result)
			}
			return nil
		})
	}

	return g.Wait()
}
