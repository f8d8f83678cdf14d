// Package metrics exposes Prometheus collectors for the spawn orchestrator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pspawner"

// Metrics holds the orchestrator collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	cleared     *prometheus.CounterVec
	submitted   *prometheus.CounterVec
	operateRuns *prometheus.CounterVec
	errorCount  prometheus.Gauge
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Progress record transitions, by the state entered.",
		}, []string{"state"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors counted against the progress record, by the state they occurred in.",
		}, []string{"state"}),
		cleared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_cleared_total",
			Help:      "Progress records cleared, by outcome.",
		}, []string{"outcome"}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_submitted_total",
			Help:      "Transactions broadcast, by contract method.",
		}, []string{"method"}),
		operateRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operate_runs_total",
			Help:      "Orchestrator invocations, by result.",
		}, []string{"result"}),
		errorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_count",
			Help:      "Error count stored on the current progress record.",
		}),
	}

	m.registry.MustRegister(
		m.transitions,
		m.errors,
		m.cleared,
		m.submitted,
		m.operateRuns,
		m.errorCount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordTransition(state string) {
	m.transitions.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordError(state string, errorCount int) {
	m.errors.WithLabelValues(state).Inc()
	m.errorCount.Set(float64(errorCount))
}

func (m *Metrics) RecordCleared(outcome string) {
	m.cleared.WithLabelValues(outcome).Inc()
	m.errorCount.Set(0)
}

func (m *Metrics) RecordSubmitted(method string) {
	m.submitted.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordOperateRun(result string) {
	m.operateRuns.WithLabelValues(result).Inc()
}

// SetErrorCount mirrors the stored counter after a record is loaded.
func (m *Metrics) SetErrorCount(errorCount int) {
	m.errorCount.Set(float64(errorCount))
}
