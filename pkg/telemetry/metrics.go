package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File outcome labels for the files_processed_total counter. One outcome is
// recorded per attempted file per reload pass.
const (
	OutcomeLoaded      = "loaded"
	OutcomeMissing     = "missing"
	OutcomeStaticError = "static_error"
	OutcomeExecError   = "exec_error"
)

// Metrics provides Prometheus metrics for the configuration loader.
type Metrics struct {
	config MetricsConfig

	reloads        prometheus.Counter
	reloadDuration prometheus.Histogram
	filesProcessed *prometheus.CounterVec
	diagnostics    prometheus.Counter
	stateFields    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. With Enabled false it returns a
// no-op instance whose methods are safe to call.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Total number of reload passes",
		}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of reload passes",
			Buckets:   prometheus.DefBuckets,
		}),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Config files processed, by outcome",
		}, []string{"outcome"}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Static-analysis diagnostics reported",
		}),
		stateFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_fields",
			Help:      "Top-level fields in the configuration state",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.reloads, m.reloadDuration, m.filesProcessed, m.diagnostics, m.stateFields,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return m, nil
}

// RecordReload records one completed reload pass.
func (m *Metrics) RecordReload(duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.reloads.Inc()
	m.reloadDuration.Observe(duration.Seconds())
}

// RecordFileOutcome records the outcome of one attempted file.
func (m *Metrics) RecordFileOutcome(outcome string) {
	if m.registry == nil {
		return
	}
	m.filesProcessed.WithLabelValues(outcome).Inc()
}

// AddDiagnostics records reported diagnostics.
func (m *Metrics) AddDiagnostics(n int) {
	if m.registry == nil || n <= 0 {
		return
	}
	m.diagnostics.Add(float64(n))
}

// SetStateFields records the current size of the configuration state.
func (m *Metrics) SetStateFields(n int) {
	if m.registry == nil {
		return
	}
	m.stateFields.Set(float64(n))
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts an HTTP server exposing the metrics endpoint at the
// configured listen address. It returns immediately; the server runs until
// the process exits.
func (m *Metrics) StartServer() error {
	if m.registry == nil || m.config.ListenAddress == "" {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	go func() {
		// Error intentionally dropped: the metrics listener is best effort.
		_ = http.ListenAndServe(m.config.ListenAddress, mux)
	}()

	return nil
}
