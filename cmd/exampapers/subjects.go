package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/types"
)

var subjectsCommand = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects offered by the listing's subject filter",
	Args:  cobra.NoArgs,
	RunE:  runSubjectsCmd,
}

func init() {
	rootCmd.AddCommand(subjectsCommand)
}

func runSubjectsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, subjects, err := fetch.NewListing(newClient(&cfg), cfg.UseBrowser, cfg.Verbose).FilterOptions(cmd.Context(), cfg.ListingURL())
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if len(subjects) == 0 {
		_, _ = fmt.Fprintln(out, "The listing has no subject filter.")
		return nil
	}

	observability.NewPrinter(out).PrintSubjects(types.GroupSubjects(subjects))
	return nil
}
