package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the plugin runner
type Metrics struct {
	registry *prometheus.Registry

	// Bus metrics
	EventsReceivedTotal *prometheus.CounterVec
	HandlerErrorsTotal  *prometheus.CounterVec
	HandlerDuration     *prometheus.HistogramVec
	StreamReconnects    prometheus.Counter

	// Plugin metrics
	FilesTrackedTotal     prometheus.Counter
	SessionsRenamedTotal  *prometheus.CounterVec
	TitleGenerationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		EventsReceivedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionhooks_events_received_total",
				Help: "Total number of host events delivered to plugins",
			},
			[]string{"event_type"},
		),
		HandlerErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionhooks_handler_errors_total",
				Help: "Total number of plugin handler errors swallowed by the bus",
			},
			[]string{"plugin"},
		),
		HandlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionhooks_handler_duration_seconds",
				Help:    "Duration of plugin handler invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"plugin", "hook"},
		),
		StreamReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessionhooks_stream_reconnects_total",
				Help: "Total number of host event stream reconnect attempts",
			},
		),

		FilesTrackedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessionhooks_attribution_files_tracked_total",
				Help: "Total number of file modifications recorded for attribution",
			},
		),
		SessionsRenamedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionhooks_sessions_renamed_total",
				Help: "Total number of session titles written back to the host",
			},
			[]string{"plugin"},
		),
		TitleGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionhooks_title_generations_total",
				Help: "Total number of model title generations by outcome",
			},
			[]string{"source"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.EventsReceivedTotal)
	m.registry.MustRegister(m.HandlerErrorsTotal)
	m.registry.MustRegister(m.HandlerDuration)
	m.registry.MustRegister(m.StreamReconnects)

	m.registry.MustRegister(m.FilesTrackedTotal)
	m.registry.MustRegister(m.SessionsRenamedTotal)
	m.registry.MustRegister(m.TitleGenerationsTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
