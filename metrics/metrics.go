package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ReportsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenmap",
		Subsystem: "reports",
		Name:      "created_total",
		Help:      "Total number of reports created, labeled by report type.",
	}, []string{"type"})

	ReportsUpdatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "greenmap",
		Subsystem: "reports",
		Name:      "updated_total",
		Help:      "Total number of reports replaced by an edit or relocation.",
	})

	// SnapshotWriteFailuresTotal counts snapshot writes that did not reach storage.
	// The in-memory state is still correct when this grows, but a restart loses data.
	SnapshotWriteFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenmap",
		Subsystem: "storage",
		Name:      "snapshot_write_failures_total",
		Help:      "Total number of failed snapshot writes, labeled by snapshot key.",
	}, []string{"key"})

	AIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenmap",
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "Total number of generative AI requests, labeled by kind and result.",
	}, []string{"kind", "result"})

	AIRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "greenmap",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Time spent waiting for the generative AI service.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"kind"})

	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenmap",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Total number of geocoding lookups, labeled by kind and result.",
	}, []string{"kind", "result"})

	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "greenmap",
		Subsystem: "live",
		Name:      "websocket_clients",
		Help:      "Number of connected live-update websocket clients.",
	})
)

// Register registers the metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsCreatedTotal,
			ReportsUpdatedTotal,
			SnapshotWriteFailuresTotal,
			AIRequestsTotal,
			AIRequestDurationSeconds,
			GeocodeRequestsTotal,
			WebsocketClients,
		)
	})
}

// Result maps an error to the result label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
