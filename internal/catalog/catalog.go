// Package catalog collects exam sessions from listing rows, filters them to a
// date range and orders them for download.
package catalog

import (
	"strings"

	"github.com/jonathan/exampapers/internal/parsing"
	"github.com/jonathan/exampapers/internal/types"
)

// Cell is one table cell of a listing row.
type Cell struct {
	Text string
	Href string // first anchor's absolute href, empty when the cell has no link
}

// Row is one listing table row.
type Row struct {
	Cells []Cell
}

// Layout describes which columns of a row hold the session data.
type Layout struct {
	LabelColumn    int
	QuestionColumn int
	SolutionColumn int
	MinCells       int
}

// DefaultLayout matches the question paper listing table.
func DefaultLayout() Layout {
	return Layout{
		LabelColumn:    2,
		QuestionColumn: 3,
		SolutionColumn: 4,
		MinCells:       5,
	}
}

// fields reads the session fields from a row, failing closed when the row is
// too short for the layout.
func (l Layout) fields(row Row) (label, questionURL, solutionURL string, ok bool) {
	need := max(l.MinCells, l.LabelColumn+1, l.QuestionColumn+1, l.SolutionColumn+1)
	if len(row.Cells) < need {
		return "", "", "", false
	}
	return strings.TrimSpace(row.Cells[l.LabelColumn].Text),
		row.Cells[l.QuestionColumn].Href,
		row.Cells[l.SolutionColumn].Href,
		true
}

// Reason explains why a row was accepted or skipped.
type Reason string

const (
	// ReasonAccepted means the row became a session record
	ReasonAccepted Reason = "accepted"
	// ReasonMalformed means the row had too few cells
	ReasonMalformed Reason = "malformed row"
	// ReasonUnparseableDate means no month and year could be read from the label
	ReasonUnparseableDate Reason = "unparseable date"
	// ReasonOutOfRange means the session date falls outside the requested range
	ReasonOutOfRange Reason = "outside date range"
)

// Decision reports what happened to a single row.
type Decision struct {
	Label  string
	Date   *types.CalendarPoint
	Reason Reason
}

// Accepted reports whether the row was stored.
func (d Decision) Accepted() bool {
	return d.Reason == ReasonAccepted
}

// Stats holds running totals across pages.
type Stats struct {
	Accepted        int
	Malformed       int
	UnparseableDate int
	OutOfRange      int
}

// Rejected is the total number of skipped rows.
func (s Stats) Rejected() int {
	return s.Malformed + s.UnparseableDate + s.OutOfRange
}

func (s *Stats) add(other Stats) {
	s.Accepted += other.Accepted
	s.Malformed += other.Malformed
	s.UnparseableDate += other.UnparseableDate
	s.OutOfRange += other.OutOfRange
}

func (s *Stats) count(r Reason) {
	switch r {
	case ReasonAccepted:
		s.Accepted++
	case ReasonMalformed:
		s.Malformed++
	case ReasonUnparseableDate:
		s.UnparseableDate++
	case ReasonOutOfRange:
		s.OutOfRange++
	}
}

// PageResult summarises one AddPage call.
type PageResult struct {
	Stats
	Decisions []Decision
}

// Catalog is the working list of sessions for one run. It owns its records.
// Labels are not deduplicated: overlapping pages yield duplicate records.
type Catalog struct {
	dateRange types.DateRange
	layout    Layout
	records   []types.SessionRecord
	stats     Stats
}

// New creates an empty catalog bound to a date range.
func New(dateRange types.DateRange, layout Layout) *Catalog {
	return &Catalog{
		dateRange: dateRange,
		layout:    layout,
	}
}

// Range returns the catalog's date range.
func (c *Catalog) Range() types.DateRange {
	return c.dateRange
}

// AddPage classifies every row of a page and stores the ones in range.
func (c *Catalog) AddPage(rows []Row) PageResult {
	var result PageResult
	for _, row := range rows {
		decision, record := c.classify(row)
		result.Decisions = append(result.Decisions, decision)
		result.count(decision.Reason)
		if record != nil {
			c.records = append(c.records, *record)
		}
	}
	c.stats.add(result.Stats)
	return result
}

func (c *Catalog) classify(row Row) (Decision, *types.SessionRecord) {
	label, questionURL, solutionURL, ok := c.layout.fields(row)
	if !ok {
		return Decision{Reason: ReasonMalformed}, nil
	}

	point, ok := parsing.ParseCalendarPoint(label)
	if !ok {
		return Decision{Label: label, Reason: ReasonUnparseableDate}, nil
	}

	if !InRange(&point, c.dateRange) {
		return Decision{Label: label, Date: &point, Reason: ReasonOutOfRange}, nil
	}

	record := &types.SessionRecord{
		Label:       label,
		QuestionURL: questionURL,
		SolutionURL: solutionURL,
		ParsedDate:  &point,
	}
	return Decision{Label: label, Date: &point, Reason: ReasonAccepted}, record
}

// Len returns the number of stored records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns a copy of the stored records in insertion order.
func (c *Catalog) Records() []types.SessionRecord {
	out := make([]types.SessionRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Stats returns running totals across all pages added so far.
func (c *Catalog) Stats() Stats {
	return c.stats
}
