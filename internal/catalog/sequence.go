package catalog

import (
	"slices"

	"github.com/jonathan/exampapers/internal/parsing"
	"github.com/jonathan/exampapers/internal/types"
)

// Order returns a new slice of records sorted newest first. The sort is
// stable, so sessions in the same month keep their input order. Records
// without a parsed date sort last. The input slice is not modified.
func Order(records []types.SessionRecord) []types.SessionRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b types.SessionRecord) int {
		return compareDescending(a.ParsedDate, b.ParsedDate)
	})
	return out
}

func compareDescending(a, b *types.CalendarPoint) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return b.Compare(*a)
	}
}

func sortDescending[T any](items []T, date func(T) types.CalendarPoint) {
	slices.SortStableFunc(items, func(a, b T) int {
		return date(b).Compare(date(a))
	})
}

func parseOption(opt types.FilterOption) (types.CalendarPoint, bool) {
	return parsing.ParseCalendarPoint(opt.Text)
}
