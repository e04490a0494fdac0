package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

const (
	defaultTable   = "events"
	defaultTimeout = 15 * time.Second
)

// SupabaseConfig holds the REST endpoint and credentials of a Supabase project
type SupabaseConfig struct {
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// SupabaseSink writes records through the Supabase REST (PostgREST) API
type SupabaseSink struct {
	endpoint   string
	apiKey     string
	mode       Mode
	httpClient *http.Client
}

// NewSupabaseSink creates a new Supabase sink
func NewSupabaseSink(cfg SupabaseConfig, mode Mode) (*SupabaseSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid supabase URL: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if mode == "" {
		mode = ModeAppend
	}

	return &SupabaseSink{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + url.PathEscape(table),
		apiKey:   cfg.APIKey,
		mode:     mode,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (s *SupabaseSink) Name() string { return string(KindSupabase) }

// Save inserts records in a single bulk request. In upsert mode rows with a
// matching url are merged instead of duplicated, and records repeating a url
// within the batch are collapsed first since PostgREST rejects a batch that
// touches the same row twice. The returned count is the number of rows sent.
func (s *SupabaseSink) Save(ctx context.Context, records []*event.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	if s.mode == ModeUpsert {
		records = collapseByKey(records)
	}

	body, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("marshaling records: %w", err)
	}

	endpoint := s.endpoint
	prefer := "return=minimal"
	if s.mode == ModeUpsert {
		endpoint += "?on_conflict=url"
		prefer += ",resolution=merge-duplicates"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting records: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Don't include response body in error to prevent information leakage
		return 0, fmt.Errorf("supabase API error (status %d)", resp.StatusCode)
	}

	return len(records), nil
}

func (s *SupabaseSink) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// collapseByKey keeps one record per non-empty Key, the last one seen, at the
// position of the first. Records without a key are all kept.
func collapseByKey(records []*event.Record) []*event.Record {
	out := make([]*event.Record, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			out = append(out, rec)
			continue
		}
		if i, ok := seen[key]; ok {
			out[i] = rec
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out
}
