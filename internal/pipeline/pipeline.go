// Package pipeline runs one scrape: fetch, archive the raw markup, extract,
// build records and persist them.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/eplus-events/internal/archive"
	"github.com/pfrederiksen/eplus-events/internal/event"
	"github.com/pfrederiksen/eplus-events/internal/logger"
	"github.com/pfrederiksen/eplus-events/internal/metrics"
	"github.com/pfrederiksen/eplus-events/internal/scraper"
	"github.com/pfrederiksen/eplus-events/internal/sink"
)

// Failure stages reported to the observer.
const (
	StageFetch   = "fetch"
	StageArchive = "archive"
	StageSave    = "save"
)

// Result describes a finished run.
type Result struct {
	Schema     scraper.Schema
	CardsFound int
	Records    []*event.Record
	Persisted  int
	SinkName   string
	StartedAt  time.Time
}

// Pipeline wires a scraper to a sink. Observer, Archiver and Logger are
// optional.
type Pipeline struct {
	Scraper  *scraper.Scraper
	Sink     sink.Sink
	Observer metrics.Observer
	Archiver archive.Archiver
	Logger   *logger.Logger

	// ArchivePrefix is prepended to archived object keys.
	ArchivePrefix string

	now func() time.Time
}

// New creates a pipeline with a no-op observer and the default logger.
func New(s *scraper.Scraper, out sink.Sink) *Pipeline {
	return &Pipeline{
		Scraper:  s,
		Sink:     out,
		Observer: metrics.Nop{},
		Logger:   logger.Default(),
		now:      time.Now,
	}
}

// Run executes the pipeline once. A fetch failure yields an empty run; a
// save failure is returned together with the built records.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.defaults()

	started := p.now().UTC()
	schema := p.Scraper.Schema()
	log := p.Logger.With(logger.Fields{"schema": schema.String()})

	page, err := p.Scraper.Scrape(ctx)
	if err != nil {
		log.Error("Fetch failed, continuing with empty markup", nil, err)
		p.Observer.RunFailed(StageFetch, err)
	}

	p.archive(ctx, log, page, started)

	p.Observer.CardsFound(schema.String(), len(page.Cards))
	p.Observer.RecordsBuilt(len(page.Records))

	result := &Result{
		Schema:     schema,
		CardsFound: len(page.Cards),
		Records:    page.Records,
		SinkName:   p.Sink.Name(),
		StartedAt:  started,
	}

	if len(page.Records) == 0 {
		log.Info("No records to persist", nil)
		p.Observer.RecordsPersisted(result.SinkName, 0)
		return result, nil
	}

	n, err := p.Sink.Save(ctx, page.Records)
	if err != nil {
		p.Observer.RunFailed(StageSave, err)
		return result, fmt.Errorf("saving %d records to %s: %w", len(page.Records), result.SinkName, err)
	}
	result.Persisted = n
	p.Observer.RecordsPersisted(result.SinkName, n)

	return result, nil
}

func (p *Pipeline) archive(ctx context.Context, log *logger.Logger, page *scraper.Page, started time.Time) {
	if p.Archiver == nil || page.Markup == "" {
		return
	}
	key := archive.Key(p.ArchivePrefix, event.Source, page.Schema.String(), started)
	if err := p.Archiver.Archive(ctx, key, page.Markup); err != nil {
		log.Warn("Archiving raw markup failed", logger.Fields{"key": key, "error": err.Error()})
		p.Observer.RunFailed(StageArchive, err)
		return
	}
	log.Debug("Archived raw markup", logger.Fields{"key": key})
}

func (p *Pipeline) defaults() {
	if p.Observer == nil {
		p.Observer = metrics.Nop{}
	}
	if p.Logger == nil {
		p.Logger = logger.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
}
