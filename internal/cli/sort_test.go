package cli

import (
	"testing"
	"time"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

var sortTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func rec(title string, date *event.Date, venue *string) *event.Record {
	return event.NewRecord(event.Fields{Title: title, Date: date, Venue: venue}, sortTime)
}

func date(y int, m time.Month, d int) *event.Date {
	return &event.Date{Year: y, Month: m, Day: d}
}

func titles(records []*event.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestSortRecords(t *testing.T) {
	newRecords := func() []*event.Record {
		return []*event.Record{
			rec("Charlie", date(2024, 5, 1), event.StringPtr("Hall B")),
			rec("alpha", nil, nil),
			rec("Bravo", date(2024, 3, 15), event.StringPtr("Hall A")),
			rec("Delta", date(2024, 3, 15), event.StringPtr("")),
		}
	}

	tests := []struct {
		name  string
		order SortOrder
		want  []string
	}{
		{name: "page order", order: SortNone, want: []string{"Charlie", "alpha", "Bravo", "Delta"}},
		{name: "by date", order: SortByDate, want: []string{"Bravo", "Delta", "Charlie", "alpha"}},
		{name: "by title", order: SortByTitle, want: []string{"alpha", "Bravo", "Charlie", "Delta"}},
		{name: "by venue", order: SortByVenue, want: []string{"Bravo", "Charlie", "Delta", "alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := newRecords()
			sortRecords(records, tt.order)
			got := titles(records)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sortRecords(%q) = %v, want %v", tt.order, got, tt.want)
					break
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    SortOrder
		wantErr bool
	}{
		{input: "", want: SortNone},
		{input: "date", want: SortByDate},
		{input: " Title ", want: SortByTitle},
		{input: "venue", want: SortByVenue},
		{input: "state", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortOrder(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortOrder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
