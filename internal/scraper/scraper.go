package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// Page is the outcome of scraping one search result page.
type Page struct {
	Query   string
	Schema  Schema
	Markup  string
	Cards   []Card
	Records []*event.Record
}

// Scraper handles fetching and parsing one e+ search result page
type Scraper struct {
	fetcher Fetcher
	schema  Schema
	keyword string
	now     func() time.Time
}

// New creates a new Scraper instance
func New(fetcher Fetcher, schema Schema, keyword string) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		schema:  schema,
		keyword: keyword,
		now:     time.Now,
	}
}

// Schema returns the selector schema the scraper applies.
func (s *Scraper) Schema() Schema {
	return s.schema
}

// Scrape fetches the search page and parses it. On a fetch failure the
// returned page is empty but non-nil, alongside the error.
func (s *Scraper) Scrape(ctx context.Context) (*Page, error) {
	markup, err := s.fetcher.Fetch(ctx, s.keyword)
	if err != nil {
		return s.Parse(""), fmt.Errorf("fetching search page: %w", err)
	}
	return s.Parse(markup), nil
}

// Parse extracts cards from markup and builds one record per card.
func (s *Scraper) Parse(markup string) *Page {
	cards := Extract(markup, s.schema)
	return &Page{
		Query:   s.keyword,
		Schema:  s.schema,
		Markup:  markup,
		Cards:   cards,
		Records: Build(cards, s.schema, s.now()),
	}
}
