package model

import "strings"

// Heading is a single heading element tagged with its level (2 for <h2>
// through 6 for <h6>; the page's <h1> is promoted to the document title).
type Heading struct {
	// Level is the heading level, 2-6.
	Level int `json:"level"`

	// Text is the heading text with surrounding whitespace collapsed.
	Text string `json:"text"`
}

// List is an ordered or unordered list with its item texts.
type List struct {
	// Ordered is true for <ol> lists, false for <ul>.
	Ordered bool `json:"ordered"`

	// Items contains the text of each list item in document order.
	Items []string `json:"items"`
}

// StructuredDocument is the content extracted from a single fetched page.
//
// Design decision: headings, paragraphs, and lists are kept as separate
// ordered sequences rather than one interleaved block stream because:
//  1. The JSON artifact consumers (RAG ingestion) address them by kind
//  2. Each sequence preserves document order within its kind
//  3. The flattened rendition only needs kind-grouped ordering
type StructuredDocument struct {
	// URL is the normalized absolute URL the content was extracted from.
	URL string `json:"url"`

	// Title is the page title, preferring the first <h1> over <title>.
	Title string `json:"title"`

	// Headings contains h2-h6 elements in document order.
	Headings []Heading `json:"headings"`

	// Paragraphs contains paragraph text blocks in document order,
	// whitespace-collapsed and deduplicated.
	Paragraphs []string `json:"paragraphs"`

	// Lists contains <ul>/<ol> structures in document order.
	Lists []List `json:"lists"`
}

// IsEmpty reports whether no content at all was extracted.
func (d *StructuredDocument) IsEmpty() bool {
	return d.Title == "" && len(d.Headings) == 0 && len(d.Paragraphs) == 0 && len(d.Lists) == 0
}

// FlattenedText renders the document as plain text for corpus aggregation.
// Title, headings, paragraphs, and list items appear in that group order,
// each group's members in document order, blocks separated by blank lines.
func (d *StructuredDocument) FlattenedText() string {
	var blocks []string

	if d.Title != "" {
		blocks = append(blocks, d.Title)
	}

	if len(d.Headings) > 0 {
		lines := make([]string, 0, len(d.Headings))
		for _, h := range d.Headings {
			lines = append(lines, h.Text)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	blocks = append(blocks, d.Paragraphs...)

	for _, l := range d.Lists {
		if len(l.Items) == 0 {
			continue
		}
		blocks = append(blocks, strings.Join(l.Items, "\n"))
	}

	return strings.Join(blocks, "\n\n")
}
