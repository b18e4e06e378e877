// Package main provides the entry point for the exam paper downloader CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "exampapers",
	Short: "Download and merge past exam papers and solutions",
	Long: `exampapers collects question papers and solutions for one subject from a paginated listing,
keeps the sessions inside a date range, downloads them newest first, discards corrupt PDFs and
merges the rest into a single document.

Configuration can be loaded from a JSON file using --config. Command-line flags override config
file values, which override EXAMPAPERS_* environment variables.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
