package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webcorpus/internal/config"
	"webcorpus/internal/crawler"
	"webcorpus/internal/database"
	"webcorpus/internal/extractor"
	"webcorpus/internal/log"
	"webcorpus/internal/sink"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website into a text corpus",
		Long: `Crawl walks a website breadth-first starting from the seed URL.

The crawl stays on the seed's host beneath the seed's path, follows
links up to the configured depth, and paces requests globally across
the worker pool. Extracted content is written into the output
directory as:
  website_data.json    structured per-URL records
  website_text.txt     flattened text corpus
  visited_urls.txt     every URL dispatched for fetching
  extracted_urls.txt   every successfully fetched URL

Examples:
  # Crawl a documentation site two levels deep
  webcorpus crawl --depth 2 https://example.com/docs

  # Crawl several sites concurrently
  webcorpus crawl https://a.example/docs https://b.example/help

  # Slow down and write a markdown summary
  webcorpus crawl --delay 2s --report https://example.com/docs

Configuration file (.webcorpus) example:
  sites:
    example.com:
      depth: 3
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the seed (seed is depth 0)")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum spacing between requests, shared across all workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request HTTP timeout")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent fetch workers")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum pages to fetch per seed (0 = unbounded)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for crawl artifacts")
	cmd.Flags().Bool("report", false,
		"Also write a markdown crawl summary into the output directory")
	cmd.Flags().Bool("no-db", false,
		"Skip recording the run in the crawl-history database")
	cmd.Flags().Duration("skip-recent", 0,
		"Skip seeds already crawled within this duration (0 = always crawl)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webcorpus in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing in-flight fetches...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Report, err = cmd.Flags().GetBool("report")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.SkipRecent, err = cmd.Flags().GetDuration("skip-recent")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Positional arguments are the seed URLs
	cfg.Seeds = args

	return cfg, nil
}

// runCrawl executes the crawl for all seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"depth", cfg.MaxDepth,
		"delay", cfg.Delay,
		"workers", cfg.Workers,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if db != nil && cfg.SkipRecent > 0 {
		kept, err := filterRecentSeeds(ctx, db, cfg, logger)
		if err != nil {
			return err
		}
		if len(kept) == 0 {
			fmt.Println("All seeds were crawled recently; nothing to do.")
			return nil
		}
		cfg.Seeds = kept
	}

	concurrency := 1
	if len(cfg.Seeds) > 1 {
		concurrency = cfg.BatchSize
	}

	outDirs := make([]string, len(cfg.Seeds))
	for i, seed := range cfg.Seeds {
		outDirs[i] = seedOutputDir(cfg.OutputDir, seed, len(cfg.Seeds) > 1)
	}

	// Per-seed gates are stopped after the whole batch finishes.
	var mu sync.Mutex
	var gates []*crawler.Gate
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, g := range gates {
			g.Stop()
		}
	}()

	factory := func(seed string) (*crawler.Crawler, error) {
		siteCfg := cfg.ForSite(seed)

		gate := crawler.NewGate(siteCfg.Delay)
		mu.Lock()
		gates = append(gates, gate)
		mu.Unlock()

		fetcher := crawler.NewFetcher(
			&http.Client{Timeout: siteCfg.Timeout},
			gate,
			crawler.WithUserAgent(siteCfg.UserAgent),
			crawler.WithHeaders(siteCfg.Headers),
			crawler.WithMaxBodySize(siteCfg.MaxBodySize),
		)
		ext := extractor.New(extractor.WithFilterSelectors(siteCfg.FilterSelectors))

		return crawler.New(seed, fetcher, ext,
			crawler.WithMaxDepth(siteCfg.MaxDepth),
			crawler.WithMaxPages(siteCfg.MaxPages),
			crawler.WithWorkers(siteCfg.Workers),
			crawler.WithAllowedHosts(siteCfg.AllowedSubdomains),
			crawler.WithLogger(logger),
		)
	}

	// Persistence failures are fatal to the run; the first one wins.
	var persistErr error
	callback := func(index int, result *crawler.Result) {
		fmt.Printf("[%d/%d] Crawl completed: %s (%d fetched, %d failed)\n",
			index+1, len(cfg.Seeds), result.Seed, result.Fetched(), result.Failed())

		if err := persistResult(ctx, cfg, db, outDirs[index], result, logger); err != nil {
			mu.Lock()
			if persistErr == nil {
				persistErr = err
			}
			mu.Unlock()
		}
	}

	runner := crawler.NewBatchRunner(factory, callback, concurrency)
	start := time.Now()
	if err := runner.Run(ctx, cfg.Seeds); err != nil {
		return err
	}
	if persistErr != nil {
		return persistErr
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// filterRecentSeeds drops seeds that the history database records as
// crawled within cfg.SkipRecent. Seeds are matched by their normalized
// URL, which is what finished runs store.
func filterRecentSeeds(ctx context.Context, db *database.CrawlDB, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	kept := make([]string, 0, len(cfg.Seeds))
	for _, seed := range cfg.Seeds {
		key := seed
		if normalized, err := crawler.Normalize(seed); err == nil {
			key = normalized
		}

		recent, err := db.HasRecentRun(ctx, key, cfg.SkipRecent)
		if err != nil {
			return nil, fmt.Errorf("failed to check crawl history: %w", err)
		}
		if recent {
			logger.Info("seed crawled recently, skipping",
				"seed", seed, "within", cfg.SkipRecent)
			continue
		}
		kept = append(kept, seed)
	}
	return kept, nil
}

// persistResult writes the artifacts for one finished seed and records the
// run in the history database.
func persistResult(ctx context.Context, cfg *config.Config, db *database.CrawlDB, dir string, result *crawler.Result, logger *slog.Logger) error {
	s := sink.New(dir, logger)
	if err := s.Flush(result); err != nil {
		return fmt.Errorf("failed to write crawl artifacts: %w", err)
	}

	if cfg.Report {
		path := filepath.Join(dir, sink.ReportFile)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		if err := sink.WriteReport(f, result); err != nil {
			f.Close() //nolint:errcheck
			return fmt.Errorf("failed to write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close report file: %w", err)
		}
		logger.Info("report written", "path", path)
	}

	if db != nil {
		// After a shutdown signal the run context is already cancelled;
		// the history row for the interrupted run must still be written.
		if _, err := db.SaveRun(context.WithoutCancel(ctx), result, cfg.MaxDepth); err != nil {
			// History is best effort; losing it does not invalidate the
			// artifacts on disk.
			logger.Error("failed to save run history", "seed", result.Seed, "error", err)
		}
	}

	return nil
}

// seedOutputDir returns the artifact directory for one seed. A single
// seed writes directly into the base directory; multiple seeds get one
// subdirectory each, named after the seed's host and path.
func seedOutputDir(base, seed string, multi bool) string {
	if !multi {
		return base
	}
	u, err := url.Parse(seed)
	if err != nil {
		return filepath.Join(base, sanitizePathComponent(seed))
	}
	name := u.Host
	if p := strings.Trim(u.Path, "/"); p != "" {
		name += "_" + p
	}
	return filepath.Join(base, sanitizePathComponent(name))
}

// sanitizePathComponent makes a seed usable as a directory name.
func sanitizePathComponent(s string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "#", "_", " ", "_")
	return replacer.Replace(s)
}
