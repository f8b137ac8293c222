package httpd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "hxgui"

// Metrics are the gateway's Prometheus instruments. The renderer, the
// event bus, and the bus client feed them through observer hooks so
// none of those packages depends on the metrics layer.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	FramesTotal        prometheus.Counter
	BusMessagesTotal   *prometheus.CounterVec
	DroppedSubscribers prometheus.Counter
	CallbacksTotal     *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics registers the gateway instruments with the registry.
// A nil registry means the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Number of registered browser sessions",
		}),
		FramesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sse_frames_total",
			Help:      "Total SSE frames published by the renderer",
		}),
		BusMessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bus_messages_total",
			Help:      "Total inbound GUI bus messages by type",
		}, []string{"type"}),
		DroppedSubscribers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_subscribers_total",
			Help:      "Subscriptions dropped for not keeping up",
		}),
		CallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "callbacks_total",
			Help:      "Browser callback invocations by context",
		}, []string{"context"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}
