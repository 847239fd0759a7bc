// Package main provides the entry point for the webcorpus CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webcorpus.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webcorpus",
		Short: "Breadth-first documentation crawler for text corpora",
		Long: `webcorpus crawls a website breadth-first within a bounded scope and
extracts its textual content into a corpus for retrieval pipelines.

A crawl stays on the seed's host beneath the seed's path, paces its
requests globally, and writes structured JSON plus a flattened text
corpus into the output directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
