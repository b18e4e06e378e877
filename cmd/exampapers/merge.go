package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/exampapers/internal/merge"
	"github.com/jonathan/exampapers/internal/validation"
)

var mergeCommand = &cobra.Command{
	Use:   "merge [flags] <file.pdf>...",
	Short: "Merge local PDFs in the order given",
	Long: `Concatenates the given PDFs into one file, in argument order. Files that are
missing or not valid PDFs are skipped with a warning.`,
	Example: `  exampapers merge -o CS1_all.pdf Jun2024_Q.pdf Jun2024_S.pdf Nov2023_Q.pdf`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runMergeCmd,
}

var mergeOutput string

func init() {
	mergeCommand.Flags().StringVarP(&mergeOutput, "output", "o", "", "Path of the merged PDF (required)")
	_ = mergeCommand.MarkFlagRequired("output")

	rootCmd.AddCommand(mergeCommand)
}

func runMergeCmd(cmd *cobra.Command, args []string) error {
	name := filepath.Base(mergeOutput)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("output must end in .pdf: %s", mergeOutput)
	}

	folder := filepath.Dir(mergeOutput)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	engine := merge.NewEngine(validation.NewPDFValidator(), merge.NewPDFCPUSink())
	merged, err := engine.Merge(args, name, folder)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Merged %d of %d PDFs into %s\n", len(merged.Inputs), len(args), merged.Path)
	return nil
}
