// Package metrics exposes Prometheus instrumentation for the IM server:
// connection counts, message throughput, and dispatch latency, served
// over an internal /metrics HTTP endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/gauge/histogram this server records.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	DisconnectsTotal  prometheus.Counter
	MessagesRouted    *prometheus.CounterVec
	DispatchErrors    *prometheus.CounterVec
	DispatchLatency   prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry, so that
// tests can construct multiple independent instances without colliding on
// the global default registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imserver_active_connections",
			Help: "Number of currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imserver_connections_total",
			Help: "Total number of accepted TCP connections.",
		}),
		DisconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imserver_disconnects_total",
			Help: "Total number of closed client connections.",
		}),
		MessagesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imserver_messages_routed_total",
			Help: "Messages successfully routed, labeled by route kind.",
		}, []string{"route"}),
		DispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imserver_dispatch_errors_total",
			Help: "Dispatch failures, labeled by message type.",
		}, []string{"type"}),
		DispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imserver_dispatch_latency_seconds",
			Help:    "Time spent processing one decoded packet.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ConnectionsTotal,
		m.DisconnectsTotal,
		m.MessagesRouted,
		m.DispatchErrors,
		m.DispatchLatency,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this Metrics instance's
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordConnect increments connection counters on accept.
func (m *Metrics) RecordConnect() {
	m.ConnectionsTotal.Inc()
	m.ActiveConnections.Inc()
}

// RecordDisconnect decrements the active gauge and increments the
// disconnect counter.
func (m *Metrics) RecordDisconnect() {
	m.DisconnectsTotal.Inc()
	m.ActiveConnections.Dec()
}
