// Package metrics exposes prometheus counters for polling and relay traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raysh454/commentlens/internal/model"
)

const namespace = "commentlens"

type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	superseded    prometheus.Counter
	relayRequests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_fetches_total",
			Help:      "Requests sent to the analysis server, by outcome status.",
		}, []string{"status"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Settled poll cycles, by outcome status and error kind.",
		}, []string{"status", "kind"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_discarded_total",
			Help:      "Poll cycles whose result was dropped because a newer cycle started.",
		}),
		relayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_requests_total",
			Help:      "Relay messages handled, by source of the answer.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.fetches, m.cycles, m.superseded, m.relayRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch counts one analysis request.
func (m *Metrics) ObserveFetch(o model.Outcome) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(o.Status.String()).Inc()
}

// ObserveCycle counts one settled poll cycle.
func (m *Metrics) ObserveCycle(o model.Outcome) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(o.Status.String(), model.Kind(o.Err)).Inc()
}

// ObserveDiscarded counts a cycle whose result was dropped.
func (m *Metrics) ObserveDiscarded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

// ObserveRelay counts one relay answer; source is "cache", "fetch" or "none".
func (m *Metrics) ObserveRelay(source string) {
	if m == nil {
		return
	}
	m.relayRequests.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
