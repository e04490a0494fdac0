// Package event provides the canonical event record and the normalization
// rules applied to raw listing fields.
//
// A Record is built once per listing card and never mutated afterwards. Raw
// field values coming from the scraper are normalized here: dates are parsed
// strictly into a calendar Date (or nil when they cannot be parsed), and
// site-relative links are joined with the site origin.
package event
