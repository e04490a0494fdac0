// Package metrics reports run counts: cards found, records built and records
// persisted. Observers are collaborators of the pipeline; they never affect
// its outcome.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pfrederiksen/eplus-events/internal/logger"
)

// Observer receives the counts of one pipeline run.
type Observer interface {
	CardsFound(schema string, n int)
	RecordsBuilt(n int)
	RecordsPersisted(sink string, n int)
	RunFailed(stage string, err error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) CardsFound(string, int)       {}
func (Nop) RecordsBuilt(int)             {}
func (Nop) RecordsPersisted(string, int) {}
func (Nop) RunFailed(string, error)      {}

// Multi fans every call out to each observer in order.
type Multi []Observer

func (m Multi) CardsFound(schema string, n int) {
	for _, o := range m {
		o.CardsFound(schema, n)
	}
}

func (m Multi) RecordsBuilt(n int) {
	for _, o := range m {
		o.RecordsBuilt(n)
	}
}

func (m Multi) RecordsPersisted(sink string, n int) {
	for _, o := range m {
		o.RecordsPersisted(sink, n)
	}
}

func (m Multi) RunFailed(stage string, err error) {
	for _, o := range m {
		o.RunFailed(stage, err)
	}
}

// LogObserver writes each count as a structured log entry.
type LogObserver struct {
	log *logger.Logger
}

// NewLogObserver creates an observer logging through l.
func NewLogObserver(l *logger.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) CardsFound(schema string, n int) {
	o.log.Info("cards found", logger.Fields{"schema": schema, "cards": n})
}

func (o *LogObserver) RecordsBuilt(n int) {
	o.log.Info("records built", logger.Fields{"records": n})
}

func (o *LogObserver) RecordsPersisted(sink string, n int) {
	if n == 0 {
		o.log.Warn("no records to persist", logger.Fields{"sink": sink})
		return
	}
	o.log.Info("records persisted", logger.Fields{"sink": sink, "records": n})
}

func (o *LogObserver) RunFailed(stage string, err error) {
	o.log.Error("run stage failed", logger.Fields{"stage": stage}, err)
}

// PrometheusObserver records counts as Prometheus metrics on its own registry.
type PrometheusObserver struct {
	registry    *prometheus.Registry
	cardsFound  *prometheus.GaugeVec
	built       prometheus.Gauge
	persisted   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	lastSuccess prometheus.Gauge
	now         func() time.Time
}

// NewPrometheusObserver creates an observer with freshly registered metrics.
func NewPrometheusObserver() *PrometheusObserver {
	o := &PrometheusObserver{
		registry: prometheus.NewRegistry(),
		cardsFound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "eplus",
			Name:      "cards_found",
			Help:      "Listing cards found on the search result page in the last run",
		}, []string{"schema"}),
		built: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eplus",
			Name:      "records_built",
			Help:      "Event records built in the last run",
		}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eplus",
			Name:      "records_persisted_total",
			Help:      "Event records written to a sink",
		}, []string{"sink"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eplus",
			Name:      "run_failures_total",
			Help:      "Pipeline stage failures",
		}, []string{"stage"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eplus",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that persisted its records",
		}),
		now: time.Now,
	}
	o.registry.MustRegister(o.cardsFound, o.built, o.persisted, o.failures, o.lastSuccess)
	return o
}

// Registry exposes the registry the observer's metrics live on.
func (o *PrometheusObserver) Registry() *prometheus.Registry {
	return o.registry
}

func (o *PrometheusObserver) CardsFound(schema string, n int) {
	o.cardsFound.WithLabelValues(schema).Set(float64(n))
}

func (o *PrometheusObserver) RecordsBuilt(n int) {
	o.built.Set(float64(n))
}

func (o *PrometheusObserver) RecordsPersisted(sink string, n int) {
	o.persisted.WithLabelValues(sink).Add(float64(n))
	o.lastSuccess.Set(float64(o.now().Unix()))
}

func (o *PrometheusObserver) RunFailed(stage string, _ error) {
	o.failures.WithLabelValues(stage).Inc()
}

// Push sends the current metrics to a Pushgateway under job.
func (o *PrometheusObserver) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(o.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
