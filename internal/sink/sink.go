package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

// Sink defines the interface for persisting event records
type Sink interface {
	// Name identifies the sink in logs and metrics
	Name() string
	// Save writes records and returns how many were written
	Save(ctx context.Context, records []*event.Record) (int, error)
	// Close releases the sink's resources
	Close() error
}

// Mode selects how records are written
type Mode string

const (
	// ModeAppend inserts every record, allowing duplicates across runs
	ModeAppend Mode = "append"
	// ModeUpsert merges records into existing rows keyed by URL
	ModeUpsert Mode = "upsert"
)

// ParseMode converts a mode name into a Mode. Empty means append.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAppend, "":
		return ModeAppend, nil
	case ModeUpsert:
		return ModeUpsert, nil
	default:
		return "", fmt.Errorf("invalid write mode: %s (must be 'append' or 'upsert')", s)
	}
}

// Kind names a sink implementation
type Kind string

const (
	KindSupabase Kind = "supabase"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
	KindDryRun   Kind = "dry-run"
)

// Config selects and configures a sink. It is passed in explicitly so a
// sink's credentials and connections live only as long as the run.
type Config struct {
	Kind        Kind
	Mode        Mode
	Supabase    SupabaseConfig
	DatabaseURL string
	SQLitePath  string
	Output      io.Writer // dry-run destination, stdout when nil
}

// Open creates the sink described by cfg.
func Open(cfg Config) (Sink, error) {
	switch cfg.Kind {
	case KindSupabase:
		return NewSupabaseSink(cfg.Supabase, cfg.Mode)
	case KindPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL is required for the postgres sink")
		}
		return OpenSQL(DialectPostgres, cfg.DatabaseURL, cfg.Mode)
	case KindSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required for the sqlite sink")
		}
		return OpenSQL(DialectSQLite, cfg.SQLitePath, cfg.Mode)
	case KindDryRun:
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		return NewDryRunSink(out), nil
	default:
		return nil, fmt.Errorf("unknown sink: %q", cfg.Kind)
	}
}
