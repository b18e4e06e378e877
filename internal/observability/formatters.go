// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jonathan/exampapers/internal/catalog"
	"github.com/jonathan/exampapers/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSubjects outputs subjects grouped by category and numbered for selection.
func (p *Printer) PrintSubjects(categories []types.SubjectCategory) {
	if len(categories) == 0 {
		return
	}

	var sb strings.Builder
	n := 1
	for i, category := range categories {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s:\n", category.Name))
		for _, subject := range category.Subjects {
			sb.WriteString(fmt.Sprintf("  %2d. %s\n", n, subject.Text))
			n++
		}
	}

	p.printBox("AVAILABLE SUBJECTS", sb.String())
}

// PrintSessions outputs sessions in the order given, one per line.
func (p *Printer) PrintSessions(sessions []types.SessionRecord) {
	if len(sessions) == 0 {
		p.printBox("SESSIONS IN RANGE", "No sessions found")
		return
	}

	var sb strings.Builder
	for i := range sessions {
		s := &sessions[i]
		sb.WriteString(fmt.Sprintf("%-8s %-30s %s\n", s.DateString(), s.Label, documentMarks(s)))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d sessions", len(sessions)))

	p.printBox("SESSIONS IN RANGE", sb.String())
}

func documentMarks(s *types.SessionRecord) string {
	if !s.HasDownloads() {
		return "-"
	}
	var marks []string
	if s.QuestionURL != "" {
		marks = append(marks, "Q")
	}
	if s.SolutionURL != "" {
		marks = append(marks, "S")
	}
	return "[" + strings.Join(marks, " ") + "]"
}

// PrintCatalogStats outputs how many listing rows were accepted and why the rest were not.
func (p *Printer) PrintCatalogStats(stats catalog.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Accepted:          %d\n", stats.Accepted))
	sb.WriteString(fmt.Sprintf("Out of range:      %d\n", stats.OutOfRange))
	sb.WriteString(fmt.Sprintf("Unparseable date:  %d\n", stats.UnparseableDate))
	sb.WriteString(fmt.Sprintf("Malformed row:     %d\n", stats.Malformed))

	p.printBox("LISTING SCAN", sb.String())
}

// PrintRunSummary outputs the outcome of a download run.
func (p *Printer) PrintRunSummary(manifest *types.RunManifest) {
	if manifest == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", manifest.RunID))
	if manifest.Subject.Text != "" {
		sb.WriteString(fmt.Sprintf("Subject:   %s\n", manifest.Subject.Text))
	}
	sb.WriteString(fmt.Sprintf("Range:     %s to %s\n", manifest.Range.Start, manifest.Range.End))
	sb.WriteString(fmt.Sprintf("Sessions:  %d\n", len(manifest.Sessions)))
	sb.WriteString(fmt.Sprintf("Downloads: %d valid PDFs\n", len(manifest.Artifacts)))
	sb.WriteString(fmt.Sprintf("State:     %s\n", manifest.State))

	if manifest.Merged != nil {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Merged:    %s\n", filepath.Base(manifest.Merged.Path)))
		sb.WriteString(fmt.Sprintf("Location:  %s\n", filepath.Dir(manifest.Merged.Path)))
		sb.WriteString(fmt.Sprintf("Inputs:    %d\n", len(manifest.Merged.Inputs)))
	}
	if manifest.Error != "" {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Error:     %s\n", manifest.Error))
	}

	p.printBox("RUN SUMMARY", sb.String())
}

// FileCheck is the validity verdict for one local PDF.
type FileCheck struct {
	Path  string
	Pages int
	Err   error
}

// PrintFileChecks outputs one verdict per file followed by totals. Only the
// first few failure reasons are shown.
func (p *Printer) PrintFileChecks(checks []FileCheck) {
	if len(checks) == 0 {
		return
	}

	var sb strings.Builder
	var failures []FileCheck
	for _, c := range checks {
		if c.Err != nil {
			sb.WriteString(fmt.Sprintf("✗ %s\n", filepath.Base(c.Path)))
			failures = append(failures, c)
			continue
		}
		sb.WriteString(fmt.Sprintf("✓ %s (%d pages)\n", filepath.Base(c.Path), c.Pages))
	}

	sb.WriteString(fmt.Sprintf("\nValid: %d  Invalid: %d\n", len(checks)-len(failures), len(failures)))

	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		count := min(len(failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s: %v\n", filepath.Base(failures[i].Path), failures[i].Err))
		}
		if len(failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(failures)-maxItemsToShow))
		}
	}

	p.printBox("PDF VALIDATION", sb.String())
}
