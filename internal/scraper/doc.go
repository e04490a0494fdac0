// Package scraper fetches e+ search result pages and turns their listing cards
// into canonical event records.
//
// Two selector schemas are supported: the browser-rendered "ticket-item"
// anchor cards and the "ticket-list" list item cards. Extraction never fails:
// missing elements resolve to empty text or nil attributes, and markup with no
// matching cards yields no records. Page retrieval is pluggable through the
// Fetcher interface, with plain HTTP, headless Chrome and local file
// implementations.
package scraper
