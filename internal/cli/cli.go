package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/eplus-events/internal/archive"
	"github.com/pfrederiksen/eplus-events/internal/config"
	"github.com/pfrederiksen/eplus-events/internal/event"
	"github.com/pfrederiksen/eplus-events/internal/logger"
	"github.com/pfrederiksen/eplus-events/internal/metrics"
	"github.com/pfrederiksen/eplus-events/internal/pipeline"
	"github.com/pfrederiksen/eplus-events/internal/scraper"
	"github.com/pfrederiksen/eplus-events/internal/sink"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// pushJob is the Pushgateway job name of a run.
const pushJob = "eplus_events"

// options holds the flag values shared by the commands.
type options struct {
	configPath string
	verbose    bool

	schema   string
	fetcher  string
	input    string
	keyword  string
	sinkKind string
	mode     string
	format   string
	sortBy   string
	hidePast bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "eplus-events",
		Short: "Scrape e+ event listings into a datastore",
		Long: `A CLI tool that fetches one e+ (eplus.jp) search result page,
extracts the event listings on it and stores them as normalized records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newRunCmd(opts), newExtractCmd(opts), newMigrateCmd(opts))

	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, extract and persist one search result page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.schema, "schema", "", "Markup schema: ticket-item or ticket-list")
	cmd.Flags().StringVar(&opts.fetcher, "fetcher", "", "Fetcher: http, browser or file")
	cmd.Flags().StringVar(&opts.input, "input", "", "Markup file for the file fetcher")
	cmd.Flags().StringVar(&opts.keyword, "keyword", "", "Search keyword (default 金沢市)")
	cmd.Flags().StringVar(&opts.sinkKind, "sink", "", "Sink: supabase, postgres, sqlite or dry-run")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Write mode: append or upsert")
	addOutputFlags(cmd, opts)

	return cmd
}

func newExtractCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records from a saved page without persisting them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Markup file to parse (required)")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "Markup schema: ticket-item or ticket-list")
	cmd.Flags().BoolVar(&opts.hidePast, "hide-past", false, "Omit events dated before today")
	addOutputFlags(cmd, opts)

	cmd.MarkFlagRequired("input")

	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the postgres or sqlite sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sinkKind, "sink", "", "Sink: postgres or sqlite")

	return cmd
}

func addOutputFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.sortBy, "sort", "", "Sort records by: date, title or venue (default: page order)")
}

// loadConfig resolves the configuration and applies the flags that were set
// explicitly on cmd.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = value
		}
	}
	override("schema", &cfg.Schema, opts.schema)
	override("fetcher", &cfg.Fetcher, opts.fetcher)
	override("input", &cfg.Input, opts.input)
	override("keyword", &cfg.Keyword, opts.keyword)
	override("sink", &cfg.Sink, opts.sinkKind)
	override("mode", &cfg.WriteMode, opts.mode)

	// an input file implies the file fetcher unless one was chosen
	if flags.Changed("input") && !flags.Changed("fetcher") {
		cfg.Fetcher = config.FetcherFile
	}

	if opts.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	return cfg, nil
}

func setupLogger(cfg *config.Config) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(level, cfg.PrettyLog, os.Stderr)
	logger.SetDefault(log)
	log.Debug("Configuration loaded", logger.Fields{"config": fmt.Sprintf("%+v", cfg.Redacted())})
	return log, nil
}

func newFetcher(cfg *config.Config, schema scraper.Schema) scraper.Fetcher {
	switch cfg.Fetcher {
	case config.FetcherFile:
		return scraper.NewFileFetcher(cfg.Input)
	case config.FetcherHTTP:
		return scraper.NewHTTPFetcher(cfg.FetchTimeout)
	default:
		return scraper.NewBrowserFetcher(schema,
			scraper.WithWaitTimeout(cfg.WaitTimeout),
			scraper.WithHeadless(cfg.Headless),
		)
	}
}

func parseOutput(opts *options) (OutputFormat, SortOrder, error) {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return "", "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}
	order, err := ParseSortOrder(opts.sortBy)
	if err != nil {
		return "", "", err
	}
	return format, order, nil
}

// runPipeline is the main command logic
func runPipeline(cmd *cobra.Command, opts *options) error {
	format, order, err := parseOutput(opts)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	schema, _ := scraper.ParseSchema(cfg.Schema)

	sinkCfg := cfg.SinkConfig()
	sinkCfg.Supabase.Timeout = cfg.FetchTimeout
	sinkCfg.Output = cmd.ErrOrStderr()
	out, err := sink.Open(sinkCfg)
	if err != nil {
		return fmt.Errorf("opening %s sink: %w", cfg.Sink, err)
	}
	defer out.Close()

	p := pipeline.New(scraper.New(newFetcher(cfg, schema), schema, cfg.Keyword), out)
	p.Logger = log

	observers := metrics.Multi{metrics.NewLogObserver(log)}
	var prom *metrics.PrometheusObserver
	if cfg.PushgatewayURL != "" {
		prom = metrics.NewPrometheusObserver()
		observers = append(observers, prom)
	}
	p.Observer = observers

	if cfg.ArchiveBucket != "" {
		arch, err := archive.NewS3Archiver(ctx, archive.Config{
			Bucket:   cfg.ArchiveBucket,
			Prefix:   cfg.ArchivePrefix,
			Region:   cfg.ArchiveRegion,
			Endpoint: cfg.ArchiveEndpoint,
		})
		if err != nil {
			log.Warn("Raw markup archive disabled", logger.Fields{"error": err.Error()})
		} else {
			p.Archiver = arch
			p.ArchivePrefix = cfg.ArchivePrefix
		}
	}

	log.Info("Starting run", logger.Fields{
		"keyword": cfg.Keyword,
		"schema":  schema.String(),
		"fetcher": cfg.Fetcher,
		"sink":    out.Name(),
	})

	result, runErr := p.Run(ctx)

	if prom != nil {
		if err := prom.Push(ctx, cfg.PushgatewayURL, pushJob); err != nil {
			log.Warn("Pushing metrics failed", logger.Fields{"error": err.Error()})
		}
	}

	if result != nil {
		records := append([]*event.Record(nil), result.Records...)
		sortRecords(records, order)
		output := &OutputResult{
			CheckedAt:  result.StartedAt,
			Keyword:    cfg.Keyword,
			Schema:     result.Schema.String(),
			Sink:       result.SinkName,
			CardsFound: result.CardsFound,
			Persisted:  result.Persisted,
			EventCount: len(records),
			Events:     records,
		}
		if err := WriteOutput(cmd.OutOrStdout(), output, format, opts.verbose); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	return runErr
}

// runExtract parses a saved page and prints its records
func runExtract(cmd *cobra.Command, opts *options) error {
	format, order, err := parseOutput(opts)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	schema, err := scraper.ParseSchema(cfg.Schema)
	if err != nil {
		return err
	}

	if _, err := setupLogger(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	page, err := scraper.New(scraper.NewFileFetcher(opts.input), schema, cfg.Keyword).Scrape(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	records := make([]*event.Record, 0, len(page.Records))
	for _, rec := range page.Records {
		if opts.hidePast && !rec.IsUpcoming(now) {
			continue
		}
		records = append(records, rec)
	}
	sortRecords(records, order)

	output := &OutputResult{
		CheckedAt:  now.UTC(),
		Keyword:    cfg.Keyword,
		Schema:     schema.String(),
		CardsFound: len(page.Cards),
		EventCount: len(records),
		Events:     records,
	}
	if err := WriteOutput(cmd.OutOrStdout(), output, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// runMigrate opens the configured SQL sink, which applies pending migrations
func runMigrate(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	kind := sink.Kind(cfg.Sink)
	if kind != sink.KindPostgres && kind != sink.KindSQLite {
		return fmt.Errorf("migrate requires the postgres or sqlite sink, got %q", cfg.Sink)
	}

	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	out, err := sink.Open(cfg.SinkConfig())
	if err != nil {
		return fmt.Errorf("opening %s sink: %w", kind, err)
	}
	defer out.Close()

	sqlSink, ok := out.(*sink.SQLSink)
	if !ok {
		return fmt.Errorf("sink %s does not support migrations", out.Name())
	}

	version, err := sqlSink.Migrate()
	if err != nil {
		return err
	}

	log.Info("Migrations applied", logger.Fields{"sink": out.Name(), "version": version})
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", out.Name(), version)
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
