// Package metrics counts what a profiling run measured and how long the
// queries took, for export as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ekaya-inc/ekaya-profiler/pkg/models"
)

const namespace = "profiler"

// Metrics holds the collectors of one run on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	statistics     *prometheus.CounterVec
	failures       *prometheus.CounterVec
	tablesProfiled prometheus.Counter
	tableFailures  prometheus.Counter
	queryDuration  *prometheus.HistogramVec
}

// New creates and registers the run's collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statistics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_total",
			Help:      "Column statistics attempted, by statistic.",
		}, []string{"statistic"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistic_failures_total",
			Help:      "Column statistics that could not be computed, by statistic and failure kind.",
		}, []string{"statistic", "kind"}),
		tablesProfiled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_profiled_total",
			Help:      "Tables profiled successfully.",
		}),
		tableFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_failures_total",
			Help:      "Tables skipped because introspection failed.",
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of statistic queries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"statistic"}),
	}

	m.registry.MustRegister(m.statistics, m.failures, m.tablesProfiled, m.tableFailures, m.queryDuration)
	return m
}

// Registry returns the registry holding the run's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStatistic records one statistic query. kind is empty on success.
func (m *Metrics) ObserveStatistic(statistic string, elapsed time.Duration, kind models.StatFailureKind) {
	if m == nil {
		return
	}
	m.statistics.WithLabelValues(statistic).Inc()
	m.queryDuration.WithLabelValues(statistic).Observe(elapsed.Seconds())
	if kind != "" {
		m.failures.WithLabelValues(statistic, string(kind)).Inc()
	}
}

// TableProfiled counts a completed table.
func (m *Metrics) TableProfiled() {
	if m == nil {
		return
	}
	m.tablesProfiled.Inc()
}

// TableFailed counts a table whose introspection failed.
func (m *Metrics) TableFailed() {
	if m == nil {
		return
	}
	m.tableFailures.Inc()
}

// WriteTextfile writes the registry in the text exposition format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
