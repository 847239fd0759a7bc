package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"webcorpus/internal/crawler"
)

// Artifact file names inside the output directory.
const (
	DataFile      = "website_data.json"
	TextFile      = "website_text.txt"
	VisitedFile   = "visited_urls.txt"
	ExtractedFile = "extracted_urls.txt"
)

// delimiter separates documents in the flattened text corpus.
var delimiter = strings.Repeat("=", 80)

// Sink writes crawl artifacts into a single output directory.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// New creates a sink rooted at dir. The directory is created on the
// first flush if it does not exist.
func New(dir string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (s *Sink) Dir() string {
	return s.dir
}

// Flush writes all four artifacts for the result. Each file is written
// to a temporary name and renamed into place, so readers never observe a
// partial artifact. The first failure aborts the flush and is returned
// to the caller as a terminal error.
func (s *Sink) Flush(result *crawler.Result) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	if err := s.writeData(result); err != nil {
		return err
	}
	if err := s.writeText(result); err != nil {
		return err
	}
	if err := s.writeVisited(result); err != nil {
		return err
	}
	if err := s.writeExtracted(result); err != nil {
		return err
	}

	s.logger.Info("crawl artifacts written",
		"dir", s.dir,
		"documents", result.Corpus.Len(),
		"visited", len(result.Attempted),
		"links", len(result.Extracted))
	return nil
}

// writeData writes the structured per-URL records as pretty-printed JSON
// keyed by URL.
func (s *Sink) writeData(result *crawler.Result) error {
	data, err := json.MarshalIndent(result.Corpus.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", DataFile, err)
	}
	return s.writeAtomic(DataFile, append(data, '\n'))
}

// writeText writes the flattened corpus in crawl order. Documents with no
// extracted content are skipped.
func (s *Sink) writeText(result *crawler.Result) error {
	var b strings.Builder
	for _, u := range result.Corpus.URLs() {
		doc, ok := result.Corpus.Get(u)
		if !ok || doc.IsEmpty() {
			continue
		}
		b.WriteString("URL: " + u + "\n")
		b.WriteString(delimiter + "\n")
		b.WriteString(doc.FlattenedText())
		b.WriteString("\n\n" + delimiter + "\n\n")
	}
	return s.writeAtomic(TextFile, []byte(b.String()))
}

// writeVisited writes every dispatched URL, sorted for stable diffs.
func (s *Sink) writeVisited(result *crawler.Result) error {
	visited := append([]string(nil), result.Attempted...)
	sort.Strings(visited)
	return s.writeAtomic(VisitedFile, lines(visited))
}

// writeExtracted writes every successfully fetched URL in fetch order.
func (s *Sink) writeExtracted(result *crawler.Result) error {
	return s.writeAtomic(ExtractedFile, lines(result.Corpus.URLs()))
}

// writeAtomic writes data to a temporary file in the output directory and
// renames it over the target name.
func (s *Sink) writeAtomic(name string, data []byte) error {
	target := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmpName)    //nolint:errcheck
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// lines joins URLs one per line with a trailing newline. An empty slice
// yields an empty file.
func lines(urls []string) []byte {
	if len(urls) == 0 {
		return nil
	}
	return []byte(strings.Join(urls, "\n") + "\n")
}
