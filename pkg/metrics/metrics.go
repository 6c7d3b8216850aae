package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Conflict reasons
const (
	ReasonSlotTaken  = "slot_taken"
	ReasonSlotLocked = "slot_being_booked"
)

// Metrics holds the booking and HTTP metrics of the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BookingsCreated      prometheus.Counter
	BookingConflicts     *prometheus.CounterVec
	StatusChanges        *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	AvailabilityRequests prometheus.Counter
}

// NewMetrics registers all metrics on a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of appointments booked",
		}),
		BookingConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the slot was held",
		}, []string{"reason"}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_changes_total",
			Help:      "Total number of appointment status changes",
		}, []string{"status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		AvailabilityRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_requests_total",
			Help:      "Total number of slot availability lookups",
		}),
	}
}

func (m *Metrics) IncBookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) IncBookingConflict(reason string) {
	if m == nil {
		return
	}
	m.BookingConflicts.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncAvailabilityRequest() {
	if m == nil {
		return
	}
	m.AvailabilityRequests.Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
