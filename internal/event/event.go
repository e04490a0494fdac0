package event

import (
	"time"
)

const (
	// Source identifies the ticketing site every record originates from.
	Source = "eplus"

	// Origin is the site origin used to resolve site-relative links.
	Origin = "https://eplus.jp"

	// PlaceholderTitle fills in for listings whose title element is missing.
	PlaceholderTitle = "（タイトル不明）"
)

// Record represents a single normalized event listing
type Record struct {
	Title     string    `json:"title"`
	Date      *Date     `json:"date"`
	Venue     *string   `json:"venue"`
	URL       *string   `json:"url"`
	ImageURL  *string   `json:"image_url"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields holds the already-normalized values a Record is built from.
type Fields struct {
	Title    string
	Date     *Date
	Venue    *string
	URL      *string
	ImageURL *string
}

// NewRecord creates a Record stamped with now. CreatedAt and UpdatedAt are
// always equal on construction. An empty title is replaced by PlaceholderTitle.
func NewRecord(f Fields, now time.Time) *Record {
	title := f.Title
	if title == "" {
		title = PlaceholderTitle
	}
	ts := now.UTC()
	return &Record{
		Title:     title,
		Date:      f.Date,
		Venue:     f.Venue,
		URL:       f.URL,
		ImageURL:  f.ImageURL,
		Source:    Source,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// Key returns the upsert key of the record: its URL, or "" when it has none.
// Records without a key are never merged with existing rows.
func (r *Record) Key() string {
	if r.URL == nil {
		return ""
	}
	return *r.URL
}

// IsUpcoming reports whether the event takes place on or after the day of now.
// Records without a date count as upcoming.
func (r *Record) IsUpcoming(now time.Time) bool {
	if r.Date == nil {
		return true
	}
	today := DateOf(now)
	return !r.Date.Before(today)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
