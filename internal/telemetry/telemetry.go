// Package telemetry exposes Prometheus counters for solver activity.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solvy"

// Metrics holds the solver collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	modelCalls   *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	proposals    prometheus.Counter
	verdicts     *prometheus.CounterVec
	resources    *prometheus.CounterVec
	runs         *prometheus.CounterVec
}

// New registers the solver collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: phase (parse, requirements, recall, ...), status (ok, error)
		modelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "calls_total",
			Help:      "Model calls by pipeline phase and status",
		}, []string{"phase", "status"}),

		modelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "call_duration_seconds",
			Help:      "Model call latency by pipeline phase",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"phase"}),

		proposals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "proposals_total",
			Help:      "Candidate solutions proposed",
		}),

		// Labels: result (pass, fail, unknown)
		verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validator",
			Name:      "verdicts_total",
			Help:      "Test verdicts by result",
		}, []string{"result"}),

		// Labels: outcome (memory, fetch, failed)
		resources: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resources",
			Name:      "resolutions_total",
			Help:      "Resource requests by how they were settled",
		}, []string{"outcome"}),

		// Labels: route (recalled, new), status (completed, failed)
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Solver runs by route and status",
		}, []string{"route", "status"}),
	}
}

// ObserveModelCall records one model call. Its signature matches
// llm.Observer.
func (m *Metrics) ObserveModelCall(phase string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.modelCalls.WithLabelValues(phase, status).Inc()
	m.modelLatency.WithLabelValues(phase).Observe(took.Seconds())
}

// Proposal counts one proposal.
func (m *Metrics) Proposal() {
	if m == nil {
		return
	}
	m.proposals.Inc()
}

// Verdict counts one test verdict.
func (m *Metrics) Verdict(result string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(result).Inc()
}

// Resource counts one settled resource request.
func (m *Metrics) Resource(outcome string) {
	if m == nil {
		return
	}
	m.resources.WithLabelValues(outcome).Inc()
}

// Run counts one finished solver run.
func (m *Metrics) Run(route, status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(route, status).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
