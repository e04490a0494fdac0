package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone    SortOrder = ""
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByVenue SortOrder = "venue"
)

// ParseSortOrder validates a --sort value. An empty value keeps page order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortNone, SortByDate, SortByTitle, SortByVenue:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'title' or 'venue')", s)
	}
}

// sortRecords sorts a slice of records based on the specified sort order
func sortRecords(records []*event.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Title != records[j].Title {
				return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
			}
			// If titles are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	case SortByVenue:
		sort.SliceStable(records, func(i, j int) bool {
			vi, vj := venue(records[i]), venue(records[j])
			if vi != vj {
				// records without a venue go last
				if vi == "" || vj == "" {
					return vj == ""
				}
				return vi < vj
			}
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate compares two records by their date
// Returns true if record i should come before record j
func compareByDate(i, j *event.Record) bool {
	// If both dates are valid, compare them
	if i.Date != nil && j.Date != nil {
		if *i.Date != *j.Date {
			return i.Date.Before(*j.Date)
		}
		return strings.ToLower(i.Title) < strings.ToLower(j.Title)
	}

	// If only one date is valid, put the valid one first
	if i.Date != nil {
		return true
	}
	if j.Date != nil {
		return false
	}

	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}

func venue(r *event.Record) string {
	if r.Venue == nil {
		return ""
	}
	return *r.Venue
}
