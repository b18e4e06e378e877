// Package types provides type definitions for structured data used throughout the exampapers system.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a date range starts after it ends.
var ErrInvalidRange = errors.New("start date should be earlier than end date")

// CalendarPoint is a month-granular date. The day of month is never stored,
// so two dates in the same month and year are always equal.
type CalendarPoint struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewCalendarPoint builds a CalendarPoint from a year and month.
func NewCalendarPoint(year int, month time.Month) CalendarPoint {
	return CalendarPoint{Year: year, Month: month}
}

// Compare returns -1, 0 or +1 depending on whether p is before, equal to or after other.
func (p CalendarPoint) Compare(other CalendarPoint) int {
	switch {
	case p.Year < other.Year:
		return -1
	case p.Year > other.Year:
		return 1
	case p.Month < other.Month:
		return -1
	case p.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is strictly earlier than other.
func (p CalendarPoint) Before(other CalendarPoint) bool {
	return p.Compare(other) < 0
}

// After reports whether p is strictly later than other.
func (p CalendarPoint) After(other CalendarPoint) bool {
	return p.Compare(other) > 0
}

// Time returns the first instant of the month in UTC.
func (p CalendarPoint) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the point as YYYY-MM.
func (p CalendarPoint) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label formats the point for humans, e.g. "Jun 2019".
func (p CalendarPoint) Label() string {
	return p.Time().Format("Jan 2006")
}

// DateRange is an inclusive month-granular range.
type DateRange struct {
	Start CalendarPoint `json:"start"`
	End   CalendarPoint `json:"end"`
}

// NewDateRange returns a range, rejecting one whose start is after its end.
func NewDateRange(start, end CalendarPoint) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether p lies inside the range, both ends inclusive.
func (r DateRange) Contains(p CalendarPoint) bool {
	return !p.Before(r.Start) && !p.After(r.End)
}

// String formats the range as "Jun 2019 to May 2025".
func (r DateRange) String() string {
	return r.Start.Label() + " to " + r.End.Label()
}

// SessionRecord is one examination sitting discovered on a listing page.
type SessionRecord struct {
	Label       string         `json:"label"`
	QuestionURL string         `json:"question_url,omitempty"`
	SolutionURL string         `json:"solution_url,omitempty"`
	ParsedDate  *CalendarPoint `json:"parsed_date,omitempty"`
}

// HasDownloads reports whether the record links to at least one document.
func (r *SessionRecord) HasDownloads() bool {
	return r.QuestionURL != "" || r.SolutionURL != ""
}

// DateString returns the parsed date as YYYY-MM, or "Unknown".
func (r *SessionRecord) DateString() string {
	if r.ParsedDate == nil {
		return "Unknown"
	}
	return r.ParsedDate.String()
}

// FileStem derives a filesystem-safe stem from the session label.
func (r *SessionRecord) FileStem() string {
	stem := strings.Join(strings.Fields(r.Label), "_")
	stem = strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return c
	}, stem)
	if stem == "" {
		return "session"
	}
	return stem
}

// ArtifactKind identifies which document of a session an artifact holds.
type ArtifactKind string

const (
	// ArtifactQuestion is a question paper
	ArtifactQuestion ArtifactKind = "Question"
	// ArtifactSolution is a solution document
	ArtifactSolution ArtifactKind = "Solution"
)

// FileName returns the artifact's file name for the given session.
func (k ArtifactKind) FileName(session *SessionRecord) string {
	return fmt.Sprintf("%s_%s.pdf", session.FileStem(), k)
}

// DownloadedArtifact is a validated local copy of one session document.
// Session is a back reference used for naming only.
type DownloadedArtifact struct {
	SourceURL string         `json:"source_url"`
	LocalPath string         `json:"local_path"`
	Kind      ArtifactKind   `json:"kind"`
	Session   *SessionRecord `json:"-"`
}

// MergedOutput is the concatenated document produced once per run.
type MergedOutput struct {
	Path   string   `json:"path"`
	Inputs []string `json:"inputs"`
}
