package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Card holds the raw field values of one listing card. Text fields are ""
// when their element is missing, attribute fields are nil.
type Card struct {
	Title string

	// Schema A
	Year     string
	MonthDay string
	Venue    string

	// Schema B
	DateText string

	Href     *string
	ImageSrc *string
}

// Extract returns the cards of markup in document order. Empty, malformed or
// non-matching markup yields an empty slice.
func Extract(markup string, schema Schema) []Card {
	cards := make([]Card, 0)
	if strings.TrimSpace(markup) == "" {
		return cards
	}

	sel, ok := schemaSelectors[schema]
	if !ok {
		return cards
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return cards
	}

	doc.Find(sel.card).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, extractCard(s, sel))
	})

	return cards
}

func extractCard(s *goquery.Selection, sel selectors) Card {
	c := Card{
		Title:    text(s, sel.title),
		Year:     text(s, sel.year),
		MonthDay: text(s, sel.monthDay),
		Venue:    text(s, sel.venue),
		DateText: text(s, sel.date),
	}

	if sel.link == "" {
		// the card itself is the anchor
		c.Href = attr(s, "href")
	} else {
		c.Href = attr(s.Find(sel.link).First(), "href")
	}

	if sel.image != "" {
		img := s.Find(sel.image).First()
		c.ImageSrc = attr(img, "src")
		if c.ImageSrc == nil || *c.ImageSrc == "" {
			c.ImageSrc = attr(img, "data-src")
		}
	}

	return c
}

// text returns the whitespace-normalized text of the first match of selector
// within s, or "" when there is none.
func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(found.Text()), " ")
}

// attr returns the trimmed value of name on s, or nil when s is empty or the
// attribute is absent.
func attr(s *goquery.Selection, name string) *string {
	if s.Length() == 0 {
		return nil
	}
	v, ok := s.Attr(name)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}
