package model

// Corpus is the aggregate of structured documents produced by one crawl run,
// keyed by normalized URL. Insertion order is preserved for the flattened
// text artifact, but completion order across concurrent fetches is
// non-deterministic, so consumers must treat the corpus as a mapping.
//
// The crawl coordinator holds the only mutable reference; the persistence
// sink receives a read-only snapshot at flush time.
type Corpus struct {
	docs  map[string]*StructuredDocument
	order []string
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		docs: make(map[string]*StructuredDocument),
	}
}

// Add stores a document under its URL. Adding the same URL twice keeps the
// first document; the crawl invariants make a second add a programming error
// rather than a data race, so it is silently ignored.
func (c *Corpus) Add(doc *StructuredDocument) {
	if doc == nil || doc.URL == "" {
		return
	}
	if _, ok := c.docs[doc.URL]; ok {
		return
	}
	c.docs[doc.URL] = doc
	c.order = append(c.order, doc.URL)
}

// Get returns the document for a URL and whether one is present.
func (c *Corpus) Get(url string) (*StructuredDocument, bool) {
	doc, ok := c.docs[url]
	return doc, ok
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int {
	return len(c.order)
}

// URLs returns the document URLs in insertion order.
func (c *Corpus) URLs() []string {
	urls := make([]string, len(c.order))
	copy(urls, c.order)
	return urls
}

// Snapshot returns a copy of the URL -> document mapping. The documents
// themselves are immutable, so sharing the pointers is safe.
func (c *Corpus) Snapshot() map[string]*StructuredDocument {
	snap := make(map[string]*StructuredDocument, len(c.docs))
	for url, doc := range c.docs {
		snap[url] = doc
	}
	return snap
}
