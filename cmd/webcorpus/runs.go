package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"webcorpus/internal/config"
	"webcorpus/internal/database"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded crawl runs",
		Long: `Runs lists the crawl history stored in the local database.

Each crawl records its seed, timing, termination reason, and page
counts. Use --seed to restrict the listing to one seed URL and
--pages to show the per-URL records of a single run.

Examples:
  # Show the most recent runs
  webcorpus runs

  # Show the history of one seed
  webcorpus runs --seed https://example.com/docs

  # Show the pages of run 3
  webcorpus runs --pages 3`,
		RunE: runRunsCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().String("seed", "", "Only show runs for this seed URL")
	cmd.Flags().Int64("pages", 0, "Show the page records of the run with this ID")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	seed, err := cmd.Flags().GetString("seed")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("pages")
	if err != nil {
		return err
	}

	// The listing requires an existing database; there is nothing to
	// create when no crawl has run yet.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no crawl history found (run a crawl first): %w", err)
	}
	defer db.Close()

	if runID > 0 {
		return printRunPages(cmd, db, runID)
	}
	return printRuns(cmd, db, seed, limit)
}

// printRuns renders the run listing as a markdown table.
func printRuns(cmd *cobra.Command, db *database.CrawlDB, seed string, limit int) error {
	ctx := cmd.Context()

	var runs []database.RunSummary
	var err error
	if seed != "" {
		runs, err = db.ListRunsForSeed(ctx, seed)
	} else {
		runs, err = db.ListRuns(ctx, limit)
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.Seed,
			run.Started.Format("2006-01-02 15:04"),
			run.Finished.Sub(run.Started).Round(time.Second).String(),
			run.Termination,
			strconv.Itoa(run.PagesFetched),
			strconv.Itoa(run.PagesFailed),
		})
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Seed", "Started", "Duration", "Termination", "Fetched", "Failed"},
		Rows:   rows,
	})
	return md.Build()
}

// printRunPages renders the page records of one run.
func printRunPages(cmd *cobra.Command, db *database.CrawlDB, runID int64) error {
	pages, err := db.GetRunPages(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No pages recorded for run %d.\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		detail := p.Title
		if p.Status != "fetched" {
			detail = p.FailureKind
			if p.StatusCode != 0 {
				detail += " (" + strconv.Itoa(p.StatusCode) + ")"
			}
		}
		rows = append(rows, []string{
			p.URL,
			strconv.Itoa(p.Depth),
			string(p.Status),
			detail,
		})
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "Status", "Detail"},
		Rows:   rows,
	})
	return md.Build()
}
