package scraper

import (
	"fmt"
	"strings"
)

// Schema selects the set of selectors used to locate cards and their fields.
type Schema int

const (
	// SchemaA matches browser-rendered anchor cards (a.ticket-item).
	SchemaA Schema = iota + 1
	// SchemaB matches list item cards (li.ticket-list__item).
	SchemaB
)

// selectors describes where each field lives inside a card. Empty selectors
// are not part of the schema.
type selectors struct {
	card     string
	title    string
	year     string
	monthDay string
	venue    string
	date     string
	link     string
	image    string
}

var schemaSelectors = map[Schema]selectors{
	SchemaA: {
		card:     "a.ticket-item",
		title:    ".ticket-item__title",
		year:     ".ticket-item__yyyy",
		monthDay: ".ticket-item__mmdd",
		venue:    ".ticket-item__venue",
	},
	SchemaB: {
		card:  "li.ticket-list__item",
		title: ".ticket-list__title",
		date:  ".ticket-list__date",
		link:  "a[href]",
		image: "img",
	},
}

// ParseSchema accepts "a", "ticket-item", "b" or "ticket-list".
func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "ticket-item":
		return SchemaA, nil
	case "b", "ticket-list":
		return SchemaB, nil
	default:
		return 0, fmt.Errorf("unknown schema: %q (must be 'ticket-item' or 'ticket-list')", s)
	}
}

func (s Schema) String() string {
	switch s {
	case SchemaA:
		return "ticket-item"
	case SchemaB:
		return "ticket-list"
	default:
		return fmt.Sprintf("Schema(%d)", int(s))
	}
}

// CardSelector returns the selector matching one card of the schema.
func (s Schema) CardSelector() string {
	return schemaSelectors[s].card
}

// MarshalText implements encoding.TextMarshaler.
func (s Schema) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Schema) UnmarshalText(text []byte) error {
	parsed, err := ParseSchema(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
