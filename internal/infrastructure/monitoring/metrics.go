package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the desktop backend.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Window manager metrics
	WindowsOpen   prometheus.Gauge
	WindowsOpened prometheus.Counter
	DragsStarted  prometheus.Counter
	DragActive    prometheus.Gauge

	// Chat metrics
	RelayConnects    prometheus.Counter
	RelayDisconnects prometheus.Counter
	ChatMessages     *prometheus.CounterVec // direction: inbound|outbound|dropped

	// WebSocket stream metrics
	StreamClients prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		WindowsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "webtop_windows_open",
			Help: "Number of currently open windows",
		}),
		WindowsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webtop_windows_opened_total",
			Help: "Total number of windows opened",
		}),
		DragsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webtop_drags_started_total",
			Help: "Total number of drag sessions started",
		}),
		DragActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "webtop_drag_active",
			Help: "Whether a drag session is currently active (0 or 1)",
		}),

		RelayConnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webtop_relay_connects_total",
			Help: "Total number of chat relay connections established",
		}),
		RelayDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "webtop_relay_disconnects_total",
			Help: "Total number of chat relay disconnects",
		}),
		ChatMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtop_chat_messages_total",
				Help: "Total chat messages by direction",
			},
			[]string{"direction"},
		),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "webtop_stream_clients",
			Help: "Number of connected desktop stream clients",
		}),

		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "webtop_uptime_seconds",
			Help: "Service uptime in seconds",
		}),
	}
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
