// Package sink persists event records to a datastore.
//
// Every sink accepts an ordered batch of records and reports how many it
// wrote. An empty batch is a no-op that writes nothing and reports zero.
// Sinks run in one of two write modes: append inserts every record, upsert
// updates existing rows that share a record's URL and inserts the rest.
package sink
