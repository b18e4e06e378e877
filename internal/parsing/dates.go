// Package parsing turns loosely formatted session labels into calendar points.
package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/exampapers/internal/types"
)

// minMonthTokenLength is the shortest accepted month abbreviation ("Jun", "Sep").
const minMonthTokenLength = 3

var (
	wordPattern = regexp.MustCompile(`[A-Za-z]+`)
	// A 4-digit run that is not part of a longer number.
	yearPattern = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)
)

// separatorReplacer maps the separators used in session labels to spaces.
var separatorReplacer = strings.NewReplacer("_", " ", "-", " ")

// NormalizeSessionText trims the text and replaces '_' and '-' with spaces.
func NormalizeSessionText(text string) string {
	return strings.TrimSpace(separatorReplacer.Replace(text))
}

// ParseCalendarPoint extracts a (year, month) pair from free-form text such as
// "June 2018", "Sep-2005", "2019_NOV" or "Exam held in June 2018 (CS1)".
// The first month-like word and the first standalone 4-digit year are used,
// in either order. It returns false when either is missing.
func ParseCalendarPoint(text string) (types.CalendarPoint, bool) {
	normalized := NormalizeSessionText(text)
	if normalized == "" {
		return types.CalendarPoint{}, false
	}

	month, ok := firstMonth(normalized)
	if !ok {
		return types.CalendarPoint{}, false
	}

	year, ok := firstYear(normalized)
	if !ok {
		return types.CalendarPoint{}, false
	}

	return types.NewCalendarPoint(year, month), true
}

// MonthFromToken resolves a month name or abbreviation, case-insensitive.
// Abbreviations must be at least three letters and a prefix of the full name.
func MonthFromToken(token string) (time.Month, bool) {
	lower := strings.ToLower(token)
	if len(lower) < minMonthTokenLength {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), lower) {
			return m, true
		}
	}
	return 0, false
}

func firstMonth(text string) (time.Month, bool) {
	for _, word := range wordPattern.FindAllString(text, -1) {
		if m, ok := MonthFromToken(word); ok {
			return m, true
		}
	}
	return 0, false
}

func firstYear(text string) (int, bool) {
	match := yearPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil || year < 1 {
		return 0, false
	}
	return year, true
}

// ParseDateRange parses user-supplied range bounds such as "Jun 2019" and
// "May 2025". It fails on unparseable text or when start is after end.
func ParseDateRange(startText, endText string) (types.DateRange, error) {
	start, ok := ParseCalendarPoint(startText)
	if !ok {
		return types.DateRange{}, &DateFormatError{Input: startText}
	}
	end, ok := ParseCalendarPoint(endText)
	if !ok {
		return types.DateRange{}, &DateFormatError{Input: endText}
	}
	return types.NewDateRange(start, end)
}

// CompactRangeText strips spaces and dashes from user range text for use in
// file names, e.g. "Jun 2019" -> "Jun2019".
func CompactRangeText(text string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(text))
}
