package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/exampapers/internal/config"
	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/merge"
	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/pipeline"
	"github.com/jonathan/exampapers/internal/prompt"
)

var downloadCommand = &cobra.Command{
	Use:   "download",
	Short: "Download question papers and solutions for a date range and merge them",
	Long: `Collects every exam session in the date range from the listing, downloads each
question paper and solution into session_<timestamp>/individuals, skips files that are
not valid PDFs, and merges the rest newest first into one PDF.

Missing --start, --end or --subject values are asked for interactively.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Example: `  exampapers download --start "Jun 2019" --end "May 2025" --subject CS1
  exampapers download -o ./papers --prefix IFoA`,
	Args: cobra.NoArgs,
	RunE: runDownloadCmd,
}

var (
	downloadFlags  rangeFlags
	downloadOutput string
	downloadPrefix string
)

func init() {
	downloadFlags.register(downloadCommand)
	downloadCommand.Flags().StringVarP(&downloadOutput, "output", "o", "", "Directory for session_<timestamp> run folders (default downloads)")
	downloadCommand.Flags().StringVar(&downloadPrefix, "prefix", "", "Prefix of the merged file name (default Actuaries)")

	rootCmd.AddCommand(downloadCommand)
}

func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, func(cfg *config.Config) {
		downloadFlags.apply(cmd, cfg)
		if cmd.Flags().Changed("output") {
			cfg.OutputDir = downloadOutput
		}
		if cmd.Flags().Changed("prefix") {
			cfg.Prefix = downloadPrefix
		}
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	client := newClient(&cfg)
	listingURL := cfg.ListingURL()

	_, _ = fmt.Fprintf(out, "Loading listing: %s\n", listingURL)
	years, subjects, err := fetch.NewListing(client, cfg.UseBrowser, cfg.Verbose).FilterOptions(ctx, listingURL)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}

	p := prompt.New(cmd.InOrStdin(), out)
	subject, err := selectSubject(subjects, cfg.Subject, p)
	if err != nil {
		return err
	}
	dateRange, startText, endText, err := resolveRange(&cfg, p)
	if err != nil {
		return err
	}

	opts := pipeline.RunOptions{
		ListingURL:  listingURL,
		OutputDir:   cfg.OutputDir,
		Range:       dateRange,
		StartText:   startText,
		EndText:     endText,
		Subject:     subject,
		YearOptions: years,
		MaxPages:    cfg.MaxPages,
		Prefix:      cfg.Prefix,
		Verbose:     cfg.Verbose,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(out, "[%s] %s\n", event.Step, event.Message)
		}
	}

	result, err := pipeline.NewDefault(client, cfg.UseBrowser, cfg.Verbose, cmd.ErrOrStderr(), out).Run(ctx, opts)
	if result != nil && result.RunFolder != "" {
		observability.NewPrinter(out).PrintRunSummary(result.Manifest)
	}

	switch {
	case err == nil:
		_, _ = fmt.Fprintf(out, "Merged PDF: %s\n", result.Manifest.Merged.Path)
		return nil
	case errors.Is(err, pipeline.ErrNoSessionsInRange):
		_, _ = fmt.Fprintf(out, "No sessions found between %s and %s.\n", startText, endText)
		return nil
	case errors.Is(err, pipeline.ErrNoValidDownloads), errors.Is(err, merge.ErrNothingToMerge):
		_, _ = fmt.Fprintln(out, "No valid PDFs were downloaded; nothing to merge.")
		return nil
	default:
		return err
	}
}
