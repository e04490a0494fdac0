package scraper

import (
	"time"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// Build turns extracted cards into records, one per card and in the same
// order. Both timestamps of every record are set to now.
func Build(cards []Card, schema Schema, now time.Time) []*event.Record {
	records := make([]*event.Record, 0, len(cards))
	for _, c := range cards {
		records = append(records, buildRecord(c, schema, now))
	}
	return records
}

func buildRecord(c Card, schema Schema, now time.Time) *event.Record {
	f := event.Fields{
		Title:    c.Title,
		URL:      event.ResolveURL(event.Origin, c.Href),
		ImageURL: event.ResolveImageURL(event.Origin, c.ImageSrc),
	}

	switch schema {
	case SchemaA:
		f.Date = event.ParseSchemaADate(c.Year, c.MonthDay)
		f.Venue = event.StringPtr(c.Venue)
	case SchemaB:
		f.Date = event.ParseSchemaBDate(c.DateText)
	}

	return event.NewRecord(f, now)
}
