// Package metrics exposes Prometheus metrics for daemonized mediarc runs.
//
// A one-shot CLI run has no scrape window, so metrics are only served in
// schedule and watch modes, where the process stays alive. The collector
// owns its registry; nothing registers globally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediarc-hq/mediarc/pkg/engine"
	"mediarc-hq/mediarc/pkg/plan"
)

// Collector holds the run metrics on a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	bytesTotal    *prometheus.CounterVec
	lastRunTime   prometheus.Gauge
	sourceSize    prometheus.Gauge
	budgetMet     prometheus.Gauge
	lastShortfall prometheus.Gauge
}

// NewCollector creates the collector and registers all metrics on a fresh
// registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediarc",
			Name:      "runs_total",
			Help:      "Completed engine runs by outcome.",
		}, []string{"outcome"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediarc",
			Name:      "actions_total",
			Help:      "Executed actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediarc",
			Name:      "bytes_total",
			Help:      "Bytes moved by action kind.",
		}, []string{"kind"}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediarc",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed run.",
		}),
		sourceSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediarc",
			Name:      "source_size_bytes",
			Help:      "Source folder size after the last run.",
		}),
		budgetMet: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediarc",
			Name:      "budget_met",
			Help:      "Whether the last run met the size budget (1 = met).",
		}),
		lastShortfall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediarc",
			Name:      "budget_shortfall_bytes",
			Help:      "Bytes over budget after the last run.",
		}),
	}
	registry.MustRegister(
		c.runsTotal,
		c.actionsTotal,
		c.bytesTotal,
		c.lastRunTime,
		c.sourceSize,
		c.budgetMet,
		c.lastShortfall,
	)
	return c
}

// RecordRun updates all metrics from a completed run report.
func (c *Collector) RecordRun(report *engine.RunReport) {
	outcome := "success"
	if report.FailedTotal() > 0 {
		outcome = "partial"
	}
	c.runsTotal.WithLabelValues(outcome).Inc()

	for kind, stats := range report.Stats {
		c.actionsTotal.WithLabelValues(kind, "success").Add(float64(stats.Succeeded))
		c.actionsTotal.WithLabelValues(kind, "failure").Add(float64(stats.Failed))
		c.actionsTotal.WithLabelValues(kind, "skipped").Add(float64(stats.Skipped))
	}
	c.bytesTotal.WithLabelValues(plan.ActionCopy.String()).Add(float64(report.BytesCopied))
	c.bytesTotal.WithLabelValues(plan.ActionDelete.String()).Add(float64(report.BytesFreed))
	c.bytesTotal.WithLabelValues(plan.ActionFetch.String()).Add(float64(report.BytesFetched))
	c.bytesTotal.WithLabelValues(plan.ActionPrune.String()).Add(float64(report.BytesPruned))

	c.lastRunTime.Set(float64(report.Ended.Unix()))
	c.sourceSize.Set(float64(report.SourceSizeAfter))
	if report.BudgetMet {
		c.budgetMet.Set(1)
	} else {
		c.budgetMet.Set(0)
	}
	c.lastShortfall.Set(float64(report.Shortfall))
}

// Handler returns an HTTP handler serving the collector's registry in
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
