package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"webcorpus/internal/crawler"
	"webcorpus/internal/model"
)

// DBFileName is the SQLite database file created inside the data directory.
const DBFileName = "webcorpus.db"

// CrawlDB provides SQLite-based storage for crawl run history. Each
// finished crawl is stored as one run row plus one page row per URL the
// crawl dispatched.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite accepts the mode through the DSN. mode=rw
	// prevents creating new files when the caller requires an existing
	// database.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the location of the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per finished crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		termination TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		pages_fetched INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		links_extracted INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

	-- Pages store one row per URL a run dispatched for fetching
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL,
		failure_kind TEXT,
		status_code INTEGER,
		title TEXT,
		content_hash TEXT,
		fetched_at DATETIME,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(content_hash);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished crawl and all of its page records in one
// transaction. It returns the new run's database ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, result *crawler.Result, maxDepth int) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, started, finished, termination, max_depth, pages_fetched, pages_failed, links_extracted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Seed,
		result.Started.UTC().Format(sqliteTimeFormat),
		result.Finished.UTC().Format(sqliteTimeFormat),
		string(result.Termination),
		maxDepth,
		result.Fetched(),
		result.Failed(),
		len(result.Extracted),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, depth, status, failure_kind, status_code, title, content_hash, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		status = excluded.status,
		failure_kind = excluded.failure_kind,
		status_code = excluded.status_code,
		title = excluded.title,
		content_hash = excluded.content_hash,
		fetched_at = excluded.fetched_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, u := range result.Attempted {
		rec := result.Records[u]
		if rec == nil {
			continue
		}
		var fetchedAt any
		if !rec.FetchedAt.IsZero() {
			fetchedAt = rec.FetchedAt.UTC().Format(sqliteTimeFormat)
		}
		if _, err := stmt.ExecContext(ctx,
			runID,
			rec.URL,
			rec.Depth,
			string(rec.Status),
			rec.FailureKind,
			rec.StatusCode,
			rec.Title,
			rec.ContentHash,
			fetchedAt,
		); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", rec.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunSummary contains the per-run metadata shown in run listings.
type RunSummary struct {
	// ID is the run's database identifier.
	ID int64

	// Seed is the URL the crawl started from.
	Seed string

	// Started and Finished bound the crawl's wall-clock duration.
	Started  time.Time
	Finished time.Time

	// Termination records why the crawl stopped.
	Termination string

	// MaxDepth is the depth bound the run was configured with.
	MaxDepth int

	// PagesFetched and PagesFailed count the run's page outcomes.
	PagesFetched int
	PagesFailed  int

	// LinksExtracted counts all hyperlinks the run discovered.
	LinksExtracted int
}

// ListRuns returns stored runs, most recent first. A limit of zero or
// less returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, seed, started, finished, termination, max_depth, pages_fetched, pages_failed, links_extracted
	FROM runs
	ORDER BY started DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		if err := rows.Scan(
			&run.ID,
			&run.Seed,
			&started,
			&finished,
			&run.Termination,
			&run.MaxDepth,
			&run.PagesFetched,
			&run.PagesFailed,
			&run.LinksExtracted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started = parseTimestamp(started)
		run.Finished = parseTimestamp(finished)
		results = append(results, run)
	}

	return results, rows.Err()
}

// ListRunsForSeed returns the stored runs for one seed URL, most recent
// first.
func (cdb *CrawlDB) ListRunsForSeed(ctx context.Context, seed string) ([]RunSummary, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, seed, started, finished, termination, max_depth, pages_fetched, pages_failed, links_extracted
	FROM runs
	WHERE seed = ?
	ORDER BY started DESC, id DESC`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		if err := rows.Scan(
			&run.ID,
			&run.Seed,
			&started,
			&finished,
			&run.Termination,
			&run.MaxDepth,
			&run.PagesFetched,
			&run.PagesFailed,
			&run.LinksExtracted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started = parseTimestamp(started)
		run.Finished = parseTimestamp(finished)
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetRunPages returns the page records of one run in URL order.
func (cdb *CrawlDB) GetRunPages(ctx context.Context, runID int64) ([]model.PageRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, depth, status, failure_kind, status_code, title, content_hash, fetched_at
	FROM pages
	WHERE run_id = ?
	ORDER BY url`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var results []model.PageRecord
	for rows.Next() {
		var rec model.PageRecord
		var status string
		var failureKind, title, contentHash, fetchedAt sql.NullString
		var statusCode sql.NullInt64

		if err := rows.Scan(
			&rec.URL,
			&rec.Depth,
			&status,
			&failureKind,
			&statusCode,
			&title,
			&contentHash,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		rec.Status = model.FetchStatus(status)
		rec.FailureKind = failureKind.String
		rec.StatusCode = int(statusCode.Int64)
		rec.Title = title.String
		rec.ContentHash = contentHash.String
		if fetchedAt.Valid {
			rec.FetchedAt = parseTimestamp(fetchedAt.String)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// HasRecentRun reports whether a seed was crawled within the specified
// duration.
func (cdb *CrawlDB) HasRecentRun(ctx context.Context, seed string, within time.Duration) (bool, error) {
	modifier := fmt.Sprintf("-%d seconds", int(within.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM runs
	WHERE seed = ? AND started > datetime('now', ?)`, seed, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent run: %w", err)
	}

	return count > 0, nil
}

// sqliteTimeFormat is the storage format for timestamps. Matching
// SQLite's own datetime() output keeps lexical comparisons against
// datetime('now', ...) correct.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
