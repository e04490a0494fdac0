package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// DryRunSink prints what would be saved without touching a datastore
type DryRunSink struct {
	w io.Writer
}

// NewDryRunSink creates a new dry-run sink writing JSON lines to w
func NewDryRunSink(w io.Writer) *DryRunSink {
	return &DryRunSink{w: w}
}

func (s *DryRunSink) Name() string { return string(KindDryRun) }

// Save writes one JSON object per record
func (s *DryRunSink) Save(_ context.Context, records []*event.Record) (int, error) {
	enc := json.NewEncoder(s.w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return len(records), nil
}

func (s *DryRunSink) Close() error { return nil }
