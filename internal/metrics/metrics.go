package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingsTotal      *prometheus.CounterVec
	SlotConflictsTotal *prometheus.CounterVec
	ReschedulesTotal   *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec

	EventsDroppedTotal prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
}

// NewCollector registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so collectors never clash.
func NewCollector(reg prometheus.Registerer, serviceName string) *Collector {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	f := promauto.With(reg)

	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome (ok or error kind).",
		}, []string{"outcome"}),

		SlotConflictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "scheduling",
			Name:      "slot_conflicts_total",
			Help:      "Slot conflicts by holder scope (doctor, patient) and operation.",
		}, []string{"scope", "operation"}),

		ReschedulesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "scheduling",
			Name:      "reschedules_total",
			Help:      "Reschedule attempts by outcome.",
		}, []string{"outcome"}),

		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Committed status transitions.",
		}, []string{"from", "to"}),

		EventsDroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Post-commit events dropped due to a full queue. Alert if non-zero.",
		}),

		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "events",
			Name:      "notifications_total",
			Help:      "Doctor notifications by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
