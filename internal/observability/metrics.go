package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	transitionsTotal    *prometheus.CounterVec
	conflictsTotal      *prometheus.CounterVec
	alertsResolvedTotal *prometheus.CounterVec
	slotsOffered        *prometheus.HistogramVec
	uploadLatency       *prometheus.HistogramVec
	notificationsTotal  *prometheus.CounterVec
	streamClients       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retention_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_transitions_total",
			Help: "Completed workflow transitions by source activity type and decision.",
		}, []string{"from", "decision"})

		conflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_conflicts_total",
			Help: "Advance attempts rejected because of concurrent modification.",
		}, []string{"reason"})

		alertsResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_alerts_resolved_total",
			Help: "Alerts that reached a terminal status.",
		}, []string{"status", "kind"})

		slotsOffered = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retention_slots_offered",
			Help:    "Number of appointment slots offered per availability query.",
			Buckets: []float64{0, 1, 2, 4, 8, 12, 16, 24},
		}, []string{"variant"})

		uploadLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retention_document_upload_seconds",
			Help:    "Latency of scanned document uploads.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_notifications_total",
			Help: "Notifications created by type.",
		}, []string{"type"})

		streamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retention_notification_stream_clients",
			Help: "Connected notification stream clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			transitionsTotal,
			conflictsTotal,
			alertsResolvedTotal,
			slotsOffered,
			uploadLatency,
			notificationsTotal,
			streamClients,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Transitions counts committed workflow transitions.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// Conflicts counts rejected concurrent advances.
func Conflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return conflictsTotal
}

// AlertsResolved counts alerts reaching retained or churned.
func AlertsResolved() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsResolvedTotal
}

// SlotsOffered observes how many slots each availability query returns.
func SlotsOffered() *prometheus.HistogramVec {
	RegisterMetrics()
	return slotsOffered
}

// UploadLatency observes document upload durations.
func UploadLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return uploadLatency
}

// Notifications counts created notifications.
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// StreamClients tracks open notification streams.
func StreamClients() prometheus.Gauge {
	RegisterMetrics()
	return streamClients
}
