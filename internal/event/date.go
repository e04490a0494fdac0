package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/width"
)

const (
	// dateLayout accepts one or two digit months and days after a four digit year.
	dateLayout = "2006.1.2"

	// isoLayout is the wire and storage representation of a Date.
	isoLayout = "2006-01-02"

	// schemaBDateLen is the number of leading characters of a combined date
	// string that carry the date itself, e.g. "2024.03.15" in "2024.03.15 (Fri)".
	schemaBDateLen = 10
)

// Date is a calendar date without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(isoLayout)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	*d = DateOf(t)
	return nil
}

// Value implements driver.Valuer so dates can be bound as query arguments.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE and TEXT columns.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(isoLayout) {
		s = s[:len(isoLayout)]
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	*d = DateOf(t)
	return nil
}

// ParseSchemaADate combines a year and a month/day token, e.g. "2024" and
// "03/15", into a Date. Slashes in the combined text become dots before it is
// parsed strictly as YYYY.MM.DD. Returns nil if the pair is not a valid date.
func ParseSchemaADate(year, monthDay string) *Date {
	combined := strings.ReplaceAll(fold(year)+"."+fold(monthDay), "/", ".")
	return parseStrict(combined)
}

// ParseSchemaBDate parses the first 10 characters of a combined date string
// such as "2024.03.15 (Fri)". Returns nil if they do not form a valid date.
func ParseSchemaBDate(raw string) *Date {
	runes := []rune(fold(raw))
	if len(runes) > schemaBDateLen {
		runes = runes[:schemaBDateLen]
	}
	return parseStrict(string(runes))
}

func parseStrict(s string) *Date {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	d := DateOf(t)
	return &d
}

// fold maps full-width digits and punctuation to their ASCII forms.
func fold(s string) string {
	return width.Fold.String(s)
}
