// Package extractor turns raw HTML into structured documents.
//
// Extraction is a pure function over the parsed tree: non-content
// elements (navigation, chrome, scripts) are stripped by a selector
// denylist, and the remainder is read into a title, headings,
// paragraphs, and lists. Malformed markup never fails extraction; it
// degrades to an empty document.
package extractor
