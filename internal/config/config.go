// Package config assembles run configuration from defaults, an optional YAML
// file, a .env file and the process environment, in increasing precedence.
// Command-line flags are applied on top by the cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/eplus-events/internal/logger"
	"github.com/pfrederiksen/eplus-events/internal/scraper"
	"github.com/pfrederiksen/eplus-events/internal/sink"
)

const (
	DefaultKeyword = "金沢市"
	redacted       = "***REDACTED***"
)

// Fetcher names
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
	FetcherFile    = "file"
)

type Config struct {
	Keyword      string        `yaml:"keyword"`       // search keyword embedded in the query
	Schema       string        `yaml:"schema"`        // "ticket-item" | "ticket-list"
	Fetcher      string        `yaml:"fetcher"`       // "http" | "browser" | "file"
	Input        string        `yaml:"input"`         // markup file for the file fetcher
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // HTTP request timeout
	WaitTimeout  time.Duration `yaml:"wait_timeout"`  // browser wait for the first card
	Headless     bool          `yaml:"headless"`

	Sink          string `yaml:"sink"`       // "supabase" | "postgres" | "sqlite" | "dry-run"
	WriteMode     string `yaml:"write_mode"` // "append" | "upsert"
	SupabaseURL   string `yaml:"supabase_url"`
	SupabaseKey   string `yaml:"supabase_key"`
	SupabaseTable string `yaml:"supabase_table"`
	DatabaseURL   string `yaml:"database_url"`
	SQLitePath    string `yaml:"sqlite_path"`

	ArchiveBucket   string `yaml:"archive_bucket"` // empty disables archiving
	ArchivePrefix   string `yaml:"archive_prefix"`
	ArchiveRegion   string `yaml:"archive_region"`
	ArchiveEndpoint string `yaml:"archive_endpoint"`

	PushgatewayURL string `yaml:"pushgateway_url"` // empty disables pushing metrics

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // console output instead of JSON
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Keyword:       DefaultKeyword,
		Schema:        scraper.SchemaA.String(),
		Fetcher:       FetcherBrowser,
		FetchTimeout:  scraper.Timeout,
		WaitTimeout:   scraper.WaitTimeout,
		Headless:      true,
		Sink:          string(sink.KindSupabase),
		WriteMode:     string(sink.ModeAppend),
		SupabaseTable: "events",
		SQLitePath:    "eplus-events.db",
		LogLevel:      string(logger.LevelInfo),
	}
}

// Load builds a Config. path names an optional YAML file; a missing .env file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Keyword = getenv("EPLUS_KEYWORD", c.Keyword)
	c.Schema = getenv("EPLUS_SCHEMA", c.Schema)
	c.Fetcher = getenv("EPLUS_FETCHER", c.Fetcher)
	c.Input = getenv("EPLUS_INPUT", c.Input)
	c.Sink = getenv("EPLUS_SINK", c.Sink)
	c.WriteMode = getenv("EPLUS_WRITE_MODE", c.WriteMode)
	c.SupabaseURL = getenv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = getenv("SUPABASE_ANON_KEY", c.SupabaseKey)
	c.SupabaseTable = getenv("EPLUS_SUPABASE_TABLE", c.SupabaseTable)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getenv("EPLUS_SQLITE_PATH", c.SQLitePath)
	c.ArchiveBucket = getenv("EPLUS_ARCHIVE_BUCKET", c.ArchiveBucket)
	c.ArchivePrefix = getenv("EPLUS_ARCHIVE_PREFIX", c.ArchivePrefix)
	c.ArchiveRegion = getenv("EPLUS_ARCHIVE_REGION", c.ArchiveRegion)
	c.ArchiveEndpoint = getenv("EPLUS_ARCHIVE_ENDPOINT", c.ArchiveEndpoint)
	c.PushgatewayURL = getenv("EPLUS_PUSHGATEWAY_URL", c.PushgatewayURL)
	c.LogLevel = getenv("EPLUS_LOG_LEVEL", c.LogLevel)

	var err error
	if c.FetchTimeout, err = envDuration("EPLUS_FETCH_TIMEOUT", c.FetchTimeout); err != nil {
		return err
	}
	if c.WaitTimeout, err = envDuration("EPLUS_WAIT_TIMEOUT", c.WaitTimeout); err != nil {
		return err
	}
	if c.Headless, err = envBool("EPLUS_HEADLESS", c.Headless); err != nil {
		return err
	}
	if c.PrettyLog, err = envBool("EPLUS_PRETTY_LOG", c.PrettyLog); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration describes a runnable pipeline.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Keyword) == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	if _, err := scraper.ParseSchema(c.Schema); err != nil {
		return err
	}
	switch c.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	case FetcherFile:
		if c.Input == "" {
			return fmt.Errorf("the file fetcher requires an input file")
		}
	default:
		return fmt.Errorf("unknown fetcher: %q (must be 'http', 'browser' or 'file')", c.Fetcher)
	}
	if _, err := sink.ParseMode(c.WriteMode); err != nil {
		return err
	}
	switch sink.Kind(c.Sink) {
	case sink.KindSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase sink")
		}
	case sink.KindPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres sink")
		}
	case sink.KindSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("a sqlite path is required for the sqlite sink")
		}
	case sink.KindDryRun:
	default:
		return fmt.Errorf("unknown sink: %q", c.Sink)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SinkConfig returns the sink section of the configuration.
func (c *Config) SinkConfig() sink.Config {
	mode, _ := sink.ParseMode(c.WriteMode)
	return sink.Config{
		Kind: sink.Kind(c.Sink),
		Mode: mode,
		Supabase: sink.SupabaseConfig{
			URL:    c.SupabaseURL,
			APIKey: c.SupabaseKey,
			Table:  c.SupabaseTable,
		},
		DatabaseURL: c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
	}
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.SupabaseKey != "" {
		cp.SupabaseKey = redacted
	}
	if cp.DatabaseURL != "" {
		cp.DatabaseURL = redacted
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid boolean for %s: %q", key, v)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
