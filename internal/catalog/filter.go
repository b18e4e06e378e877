package catalog

import "github.com/jonathan/exampapers/internal/types"

// InRange reports whether point lies within r at month granularity, both
// boundary months included. A nil point is never in range.
func InRange(point *types.CalendarPoint, r types.DateRange) bool {
	if point == nil {
		return false
	}
	return r.Contains(*point)
}

// FilterOptionsInRange returns the dropdown options whose text parses to a
// date inside r, newest first. Options with unparseable text are dropped.
func FilterOptionsInRange(options []types.FilterOption, r types.DateRange) []DatedOption {
	var out []DatedOption
	for _, opt := range options {
		point, ok := parseOption(opt)
		if !ok || !InRange(&point, r) {
			continue
		}
		out = append(out, DatedOption{Option: opt, Date: point})
	}
	sortDescending(out, func(o DatedOption) types.CalendarPoint { return o.Date })
	return out
}

// DatedOption is a filter option paired with its parsed date.
type DatedOption struct {
	Option types.FilterOption
	Date   types.CalendarPoint
}
