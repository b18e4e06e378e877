package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/exampapers/internal/config"
	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/pipeline"
	"github.com/jonathan/exampapers/internal/prompt"
)

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "List the exam sessions in a date range without downloading",
	Long: `Scans the listing the same way download does and prints the sessions in range,
newest first, marking which have a question paper [Q] and a solution [S].`,
	Args: cobra.NoArgs,
	RunE: runSessionsCmd,
}

var sessionsFlags rangeFlags

func init() {
	sessionsFlags.register(sessionsCommand)
	rootCmd.AddCommand(sessionsCommand)
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, func(cfg *config.Config) {
		sessionsFlags.apply(cmd, cfg)
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	client := newClient(&cfg)
	listingURL := cfg.ListingURL()

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

	sessions, stats, err := pipeline.NewDefault(client, cfg.UseBrowser, cfg.Verbose, cmd.ErrOrStderr(), out).
		Sessions(ctx, pipeline.RunOptions{
			ListingURL:  listingURL,
			Range:       dateRange,
			StartText:   startText,
			EndText:     endText,
			Subject:     subject,
			YearOptions: years,
			MaxPages:    cfg.MaxPages,
			Verbose:     cfg.Verbose,
		})
	if err != nil && !errors.Is(err, pipeline.ErrNoSessionsInRange) {
		return err
	}

	printer := observability.NewPrinter(out)
	printer.PrintCatalogStats(stats)
	printer.PrintSessions(sessions)
	return nil
}
