package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"webcorpus/internal/model"
)

// defaultFilterSelectors strips elements that never carry page content:
// executable and presentational tags plus the common chrome of
// documentation sites.
var defaultFilterSelectors = []string{
	"script",
	"style",
	"noscript",
	"iframe",
	"svg",
	"template",
	"header",
	"footer",
	"nav",
	"aside",
	"form",
	"[role=navigation]",
	"[role=banner]",
	"[role=contentinfo]",
	"[role=search]",
	".sidebar",
	".menu",
	".navbar",
	".breadcrumb",
	".breadcrumbs",
	".pagination",
	".cookie-banner",
	".toc",
	"#sidebar",
	"#menu",
	"#toc",
}

// titleSeparators split a <title> into page name and site suffix, as in
// "Installation | Example Docs".
var titleSeparators = []string{" | ", " - ", " – ", " — ", " :: "}

// Extractor reads structured text out of HTML pages.
type Extractor struct {
	filterSelectors []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFilterSelectors adds CSS selectors to the element denylist on top
// of the built-in set.
func WithFilterSelectors(selectors []string) Option {
	return func(e *Extractor) {
		e.filterSelectors = append(e.filterSelectors, selectors...)
	}
}

// New creates an extractor with the built-in denylist.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		filterSelectors: append([]string(nil), defaultFilterSelectors...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses body and returns the structured document for pageURL.
// The body is decoded to UTF-8 using the Content-Type charset when one is
// declared, and all extracted text is normalized to NFC. Extract never
// fails: unparsable input yields an empty document.
func (e *Extractor) Extract(pageURL string, body []byte, contentType string) *model.StructuredDocument {
	sd := &model.StructuredDocument{URL: pageURL}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return sd
	}

	pageTitle := cleanText(doc.Find("title").First().Text())

	for _, sel := range e.filterSelectors {
		doc.Find(sel).Remove()
	}

	sd.Title = e.extractTitle(doc, pageTitle)
	sd.Headings = e.extractHeadings(doc)
	sd.Paragraphs = e.extractParagraphs(doc)
	sd.Lists = e.extractLists(doc)

	return sd
}

// extractTitle prefers the first <h1>; otherwise it falls back to the
// <title> tag with any site-name suffix trimmed.
func (e *Extractor) extractTitle(doc *goquery.Document, pageTitle string) string {
	if h1 := cleanText(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	for _, sep := range titleSeparators {
		if idx := strings.Index(pageTitle, sep); idx > 0 {
			return cleanText(pageTitle[:idx])
		}
	}
	return pageTitle
}

func (e *Extractor) extractHeadings(doc *goquery.Document) []model.Heading {
	var headings []model.Heading
	doc.Find("h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" {
			return
		}
		name := goquery.NodeName(s)
		if len(name) != 2 {
			return
		}
		headings = append(headings, model.Heading{
			Level: int(name[1] - '0'),
			Text:  text,
		})
	})
	return headings
}

func (e *Extractor) extractParagraphs(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		paragraphs = append(paragraphs, text)
	})
	return paragraphs
}

func (e *Extractor) extractLists(doc *goquery.Document) []model.List {
	var lists []model.List
	doc.Find("ul, ol").Each(func(_ int, s *goquery.Selection) {
		// Nested lists are covered by their own match.
		var items []string
		s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			clone := li.Clone()
			clone.Find("ul, ol").Remove()
			if text := cleanText(clone.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) == 0 {
			return
		}
		lists = append(lists, model.List{
			Ordered: goquery.NodeName(s) == "ol",
			Items:   items,
		})
	})
	return lists
}

// cleanText collapses runs of whitespace and normalizes to NFC.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
