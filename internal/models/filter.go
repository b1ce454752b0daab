package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// Filter is the date-range scope governing which tasks are fetched.
type Filter string

const (
	FilterToday     Filter = "Today"
	FilterThisWeek  Filter = "This Week"
	FilterThisMonth Filter = "This Month"

	DefaultFilter = FilterThisWeek
)

// Filters lists the selectable filters in menu order.
var Filters = []Filter{FilterToday, FilterThisWeek, FilterThisMonth}

func (f Filter) Valid() bool {
	switch f {
	case FilterToday, FilterThisWeek, FilterThisMonth:
		return true
	}
	return false
}

// Next returns the filter after f in menu order, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return DefaultFilter
}

// Since returns the earliest creation time included by f, measured from the
// start of now's day in now's location. This Week covers the last 7 days and
// This Month the last 30, both including today.
func (f Filter) Since(now time.Time) time.Time {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f {
	case FilterToday:
		return startOfDay
	case FilterThisMonth:
		return startOfDay.AddDate(0, 0, -29)
	default:
		return startOfDay.AddDate(0, 0, -6)
	}
}

// ParseFilter accepts a filter name case-insensitively. Unknown names yield an
// error carrying the closest valid name.
func ParseFilter(s string) (Filter, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return DefaultFilter, nil
	}
	best, bestDist := DefaultFilter, -1
	for _, f := range Filters {
		if strings.EqualFold(trimmed, string(f)) {
			return f, nil
		}
		d := levenshtein.ComputeDistance(strings.ToLower(trimmed), strings.ToLower(string(f)))
		if bestDist < 0 || d < bestDist {
			best, bestDist = f, d
		}
	}
	return "", fmt.Errorf("unknown filter %q, did you mean %q?", s, best)
}
