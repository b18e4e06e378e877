package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/validation"
)

var validateCommand = &cobra.Command{
	Use:   "validate <file.pdf|dir>...",
	Short: "Check that downloaded files are valid PDFs",
	Long: `Validates each PDF given, or every .pdf file inside a given directory, and reports
page counts. Exits non-zero when any file is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCommand)
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	paths, err := expandPDFPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found")
	}

	checks := checkFiles(cmd.Context(), validation.NewPDFValidator(), paths)
	observability.NewPrinter(cmd.OutOrStdout()).PrintFileChecks(checks)

	invalid := 0
	for _, c := range checks {
		if c.Err != nil {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files are not valid PDFs", invalid, len(checks))
	}
	return nil
}

// expandPDFPaths replaces each directory argument with the .pdf files in it.
func expandPDFPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported by validation
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// maxConcurrentChecks bounds how many files are parsed at once.
const maxConcurrentChecks = 4

// checkFiles validates paths concurrently. Results keep the order of paths.
func checkFiles(ctx context.Context, v validation.Validator, paths []string) []observability.FileCheck {
	checks := make([]observability.FileCheck, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, path := range paths {
		g.Go(func() error {
			check := observability.FileCheck{Path: path}
			if err := gCtx.Err(); err != nil {
				check.Err = err
			} else if err := v.Validate(path); err != nil {
				check.Err = err
			} else if pages, err := validation.CountPDFPages(path); err != nil {
				check.Err = err
			} else {
				check.Pages = pages
			}
			checks[i] = check
			return nil
		})
	}
	_ = g.Wait()

	return checks
}
