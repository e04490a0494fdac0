// Package cli implements the command-line interface for eplus-events.
//
// The cli package provides the Cobra-based CLI with three commands: run
// (fetch, extract and persist one search result page), extract (parse a saved
// page without persisting) and migrate (prepare the SQL sinks). It resolves
// configuration, wires the scraper, sink, metrics and archive packages into a
// pipeline, and reports the records it handled as text or JSON.
package cli
