package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time       `json:"checked_at"`
	Keyword    string          `json:"keyword"`
	Schema     string          `json:"schema"`
	Sink       string          `json:"sink,omitempty"`
	CardsFound int             `json:"cards_found"`
	Persisted  int             `json:"persisted"`
	EventCount int             `json:"event_count"`
	Events     []*event.Record `json:"events"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Events == nil {
		result.Events = []*event.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, rec := range result.Events {
		date := "----------"
		if rec.Date != nil {
			date = rec.Date.String()
		}
		if rec.Venue != nil && *rec.Venue != "" {
			fmt.Fprintf(w, "%s  %s @ %s\n", date, rec.Title, *rec.Venue)
		} else {
			fmt.Fprintf(w, "%s  %s\n", date, rec.Title)
		}
		if verbose {
			if rec.URL != nil {
				fmt.Fprintf(w, "            URL: %s\n", *rec.URL)
			}
			if rec.ImageURL != nil {
				fmt.Fprintf(w, "            Image: %s\n", *rec.ImageURL)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events (%d cards", result.EventCount, result.CardsFound)
	if result.Sink != "" {
		fmt.Fprintf(w, ", %d saved to %s", result.Persisted, result.Sink)
	}
	fmt.Fprintln(w, ")")

	return nil
}
