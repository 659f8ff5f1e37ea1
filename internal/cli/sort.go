package cli

import (
	"fmt"
	"sort"

	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/schedule"
)

// SortOrder represents the available schedule orderings
type SortOrder string

const (
	SortBySource   SortOrder = "source"
	SortByTime     SortOrder = "time"
	SortByLocation SortOrder = "location"
)

// ParseSortOrder validates a --sort value.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortBySource, SortByTime, SortByLocation:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'source', 'time' or 'location')", s)
}

// sortEntries sorts schedule rows in place. SortBySource keeps page order.
func sortEntries(entries []schedule.Entry, order SortOrder) {
	switch order {
	case SortByTime:
		sort.SliceStable(entries, func(i, j int) bool {
			if !entries[i].Date.Equal(entries[j].Date) {
				return entries[i].Date.Before(entries[j].Date)
			}
			if startMinutes(entries[i]) != startMinutes(entries[j]) {
				return startMinutes(entries[i]) < startMinutes(entries[j])
			}
			// If start times are equal, sort by location
			return compareByLocation(entries[i], entries[j])
		})
	case SortByLocation:
		sort.SliceStable(entries, func(i, j int) bool {
			return compareByLocation(entries[i], entries[j])
		})
	}
}

func startMinutes(e schedule.Entry) int {
	return e.StartHour*60 + e.StartMinute
}

// compareByLocation orders by racecourse code, then date and race number.
// Unknown racecourses sort last.
func compareByLocation(i, j schedule.Entry) bool {
	ci, cj := locationRank(i.Location), locationRank(j.Location)
	if ci != cj {
		return ci < cj
	}
	if !i.Date.Equal(j.Date) {
		return i.Date.Before(j.Date)
	}
	return i.Race < j.Race
}

func locationRank(name string) int {
	loc, err := racing.LookupLocation(name)
	if err != nil {
		return 1 << 30
	}
	return loc.Code
}
