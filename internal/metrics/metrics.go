// Package metrics exposes Prometheus instruments for outbound game-server
// calls and session lifecycle transitions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RemoteRequests  *prometheus.CounterVec
	RemoteLatency   *prometheus.HistogramVec
	SessionsCreated *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	InboundUpdates  prometheus.Counter
}

// New builds a private registry so tests can create as many instances as
// they like.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Calls made to remote game servers by outcome",
		}, []string{"game", "operation", "outcome"}),
		RemoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Latency of calls to remote game servers",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"game", "operation"}),
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created per game",
		}, []string{"game"}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended per game and path (admin or remote)",
		}, []string{"game", "source"}),
		InboundUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_updates_total",
			Help:      "Session updates pushed by remote game servers",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RemoteRequests,
		m.RemoteLatency,
		m.SessionsCreated,
		m.SessionsEnded,
		m.InboundUpdates,
	)
	return m
}

// ObserveRemote records one outbound call.
func (m *Metrics) ObserveRemote(game, operation, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.RemoteRequests.WithLabelValues(game, operation, outcome).Inc()
	m.RemoteLatency.WithLabelValues(game, operation).Observe(took.Seconds())
}

func (m *Metrics) SessionCreated(game string) {
	if m == nil {
		return
	}
	m.SessionsCreated.WithLabelValues(game).Inc()
}

func (m *Metrics) SessionEnded(game, source string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(game, source).Inc()
}

func (m *Metrics) InboundUpdate() {
	if m == nil {
		return
	}
	m.InboundUpdates.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
