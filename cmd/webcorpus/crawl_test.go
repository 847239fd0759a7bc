package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webcorpus/internal/config"
	"webcorpus/internal/crawler"
	"webcorpus/internal/database"
	"webcorpus/internal/model"
	"webcorpus/internal/sink"
)

// quietLogger returns a logger that only surfaces errors during tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"depth", "delay", "timeout", "workers", "max-pages",
			"user-agent", "batch", "output", "report", "no-db",
			"skip-recent", "config",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})

	t.Run("depth default matches config", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("depth")
		if flag.DefValue != "5" {
			t.Errorf("expected depth default 5, got %q", flag.DefValue)
		}
	})
}

// TestBuildConfig tests flag-to-config mapping.
func TestBuildConfig(t *testing.T) {
	t.Run("applies flags and arguments", func(t *testing.T) {
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"-d", "3",
			"--delay", "250ms",
			"-w", "8",
			"-p", "100",
			"-o", "/tmp/corpus-out",
			"--no-db",
			"--report",
		}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/docs"})
		if err != nil {
			t.Fatalf("buildConfig returned error: %v", err)
		}

		if cfg.MaxDepth != 3 {
			t.Errorf("MaxDepth = %d, want 3", cfg.MaxDepth)
		}
		if cfg.Delay != 250*time.Millisecond {
			t.Errorf("Delay = %v, want 250ms", cfg.Delay)
		}
		if cfg.Workers != 8 {
			t.Errorf("Workers = %d, want 8", cfg.Workers)
		}
		if cfg.MaxPages != 100 {
			t.Errorf("MaxPages = %d, want 100", cfg.MaxPages)
		}
		if cfg.OutputDir != "/tmp/corpus-out" {
			t.Errorf("OutputDir = %q", cfg.OutputDir)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB disabled by --no-db")
		}
		if !cfg.Report {
			t.Error("expected Report enabled")
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://example.com/docs" {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd, []string{"https://example.com/"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("no config file falls back to empty site config", func(t *testing.T) {
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("buildConfig returned error: %v", err)
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected non-nil SiteConfigs")
		}
	})
}

// TestSeedOutputDir tests per-seed output directory naming.
func TestSeedOutputDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		seed  string
		multi bool
		want  string
	}{
		{"single seed uses base dir", "https://example.com/docs", false, "out"},
		{"multi seed appends host and path", "https://example.com/docs", true, filepath.Join("out", "example.com_docs")},
		{"multi seed root path", "https://example.com/", true, filepath.Join("out", "example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := seedOutputDir("out", tt.seed, tt.multi); got != tt.want {
				t.Errorf("seedOutputDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRunCrawlEndToEnd crawls a local test site and checks the artifacts
// on disk.
func TestRunCrawlEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/docs":
			w.Write([]byte(`<html><head><title>Docs | Site</title></head><body>
				<h1>Documentation</h1>
				<p>Start here.</p>
				<a href="/docs/install">Install</a>
				<a href="/docs/install#requirements">Requirements</a>
				<a href="https://elsewhere.example/x">External</a>
			</body></html>`)) //nolint:errcheck
		case "/docs/install":
			w.Write([]byte(`<html><body>
				<h1>Install</h1>
				<p>Run the installer.</p>
			</body></html>`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	outDir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Seeds = []string{srv.URL + "/docs"}
	cfg.MaxDepth = 1
	cfg.Delay = 0
	cfg.OutputDir = outDir
	cfg.Report = true
	cfg.SaveToDB = false
	cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}

	if err := runCrawl(context.Background(), cfg, quietLogger()); err != nil {
		t.Fatalf("runCrawl returned error: %v", err)
	}

	t.Run("structured data has both pages", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(outDir, sink.DataFile))
		if err != nil {
			t.Fatalf("failed to read data file: %v", err)
		}
		var decoded map[string]json.RawMessage
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Errorf("expected 2 entries, got %d", len(decoded))
		}
	})

	t.Run("text corpus contains extracted content", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(outDir, sink.TextFile))
		if err != nil {
			t.Fatalf("failed to read text file: %v", err)
		}
		text := string(raw)
		if !strings.Contains(text, "Documentation") || !strings.Contains(text, "Run the installer.") {
			t.Errorf("corpus missing extracted text:\n%s", text)
		}
	})

	t.Run("visited urls are deduplicated", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(outDir, sink.VisitedFile))
		if err != nil {
			t.Fatalf("failed to read visited file: %v", err)
		}
		visited := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		if len(visited) != 2 {
			t.Errorf("expected 2 visited URLs, got %v", visited)
		}
	})

	t.Run("report is written", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(outDir, sink.ReportFile))
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(raw), "# Crawl Report") {
			t.Error("report missing title")
		}
	})
}

// TestPersistResultCancelledContext verifies that an interrupted crawl
// still lands in the history database even though the run context is
// already cancelled when persistence runs.
func TestPersistResultCancelledContext(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	started := time.Now().Add(-time.Second).UTC()
	result := &crawler.Result{
		Seed:   "https://example.com/docs",
		Corpus: model.NewCorpus(),
		Records: map[string]*model.PageRecord{
			"https://example.com/docs": {
				URL: "https://example.com/docs", Depth: 0, Status: model.StatusFetched,
				Title: "Docs", ContentHash: "abc123", FetchedAt: started,
			},
		},
		Attempted:   []string{"https://example.com/docs"},
		Termination: crawler.TerminationCancelled,
		Started:     started,
		Finished:    started.Add(time.Second),
	}

	cfg := config.NewConfig()
	cfg.MaxDepth = 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := persistResult(ctx, cfg, db, t.TempDir(), result, quietLogger()); err != nil {
		t.Fatalf("persistResult returned error: %v", err)
	}

	runs, err := db.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Termination != string(crawler.TerminationCancelled) {
		t.Errorf("Termination = %q, want %q", runs[0].Termination, crawler.TerminationCancelled)
	}
}

// TestFilterRecentSeeds tests the skip-recent guard against the history
// database.
func TestFilterRecentSeeds(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Finished runs store normalized seeds.
	stored := "https://example.com/docs"
	started := time.Now().UTC()
	result := &crawler.Result{
		Seed:        stored,
		Corpus:      model.NewCorpus(),
		Records:     map[string]*model.PageRecord{},
		Termination: crawler.TerminationExhausted,
		Started:     started,
		Finished:    started,
	}
	if _, err := db.SaveRun(context.Background(), result, 2); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	cfg := config.NewConfig()
	cfg.SkipRecent = time.Hour
	cfg.Seeds = []string{
		// Un-normalized spelling of the stored seed.
		"HTTPS://Example.com/docs/",
		"https://fresh.example/help",
	}

	kept, err := filterRecentSeeds(context.Background(), db, cfg, quietLogger())
	if err != nil {
		t.Fatalf("filterRecentSeeds returned error: %v", err)
	}
	if len(kept) != 1 || kept[0] != "https://fresh.example/help" {
		t.Errorf("kept = %v, want only the fresh seed", kept)
	}

	t.Run("all seeds fresh keeps everything", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SkipRecent = time.Hour
		cfg.Seeds = []string{"https://a.example/", "https://b.example/"}

		kept, err := filterRecentSeeds(context.Background(), db, cfg, quietLogger())
		if err != nil {
			t.Fatalf("filterRecentSeeds returned error: %v", err)
		}
		if len(kept) != 2 {
			t.Errorf("kept = %v, want both seeds", kept)
		}
	})
}
