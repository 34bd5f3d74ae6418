package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SortOption selects the ordering of the recombined event list
type SortOption string

// Available sort orders
const (
	SortNewest  SortOption = "newest"
	SortOldest  SortOption = "oldest"
	SortTitleAZ SortOption = "title_az"
	SortTitleZA SortOption = "title_za"
)

// ParseEventDate parses a day/month/year display string such as
// "12/6/2025" into a time. The second return value is false when the
// string is blank or malformed.
func ParseEventDate(date string) (time.Time, bool) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, false
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes out-of-range days (32/1 becomes 1/2); reject those
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}

	return t, true
}

// SortEvents returns a new slice sorted by the given option. Date sorts
// pin events with unparseable dates to the extreme so they never silently
// disappear: last under newest, first under oldest. The sort is stable.
func SortEvents(events []Event, option SortOption) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)

	switch option {
	case SortNewest:
		sortByDate(sorted, math.MinInt64, func(a, b int64) bool { return a > b })
	case SortOldest:
		sortByDate(sorted, math.MaxInt64, func(a, b int64) bool { return a < b })
	case SortTitleAZ:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		})
	case SortTitleZA:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) > strings.ToLower(sorted[j].Name)
		})
	}

	return sorted
}

// sortByDate sorts in place by parsed date, substituting fallback for
// dates that fail to parse.
func sortByDate(events []Event, fallback int64, less func(a, b int64) bool) {
	keys := make([]int64, len(events))
	for i, ev := range events {
		if t, ok := ParseEventDate(ev.Date); ok {
			keys[i] = t.UnixMilli()
		} else {
			keys[i] = fallback
		}
	}

	sort.Stable(sortable{events: events, keys: keys, less: less})
}

type sortable struct {
	events []Event
	keys   []int64
	less   func(a, b int64) bool
}

func (s sortable) Len() int           { return len(s.events) }
func (s sortable) Less(i, j int) bool { return s.less(s.keys[i], s.keys[j]) }
func (s sortable) Swap(i, j int) {
	s.events[i], s.events[j] = s.events[j], s.events[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
