package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lodge"

// Metrics holds the Prometheus collectors of the server. A nil *Metrics is
// valid and records nothing, which keeps services usable without a registry.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	reservationWrites    *prometheus.CounterVec
	reservationConflicts prometheus.Counter
	turnaroundWarnings   prometheus.Counter
	reconciliations      *prometheus.CounterVec
	unitsDirtied         *prometheus.CounterVec
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and status code.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		reservationWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_writes_total",
				Help:      "Committed reservation writes by operation.",
			},
			[]string{"operation"}, // create | update | payment | delete
		),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Reservation writes rejected because of an overlapping stay.",
		}),
		turnaroundWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_turnaround_warnings_total",
			Help:      "Reservation writes accepted with a tight-turnaround warning.",
		}),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_runs_total",
				Help:      "Ledger reconciliation runs by result.",
			},
			[]string{"result"}, // success | failed
		),
		unitsDirtied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_marked_dirty_total",
				Help:      "Accommodation units moved to DIRTY by trigger.",
			},
			[]string{"trigger"}, // checkout | elapsed
		),
	}

	registry.MustRegister(
		m.requestDuration,
		m.inFlight,
		m.reservationWrites,
		m.reservationConflicts,
		m.turnaroundWarnings,
		m.reconciliations,
		m.unitsDirtied,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request duration and in-flight requests per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.inFlight.Inc()
		start := time.Now()
		c.Next()
		m.inFlight.Dec()

		m.requestDuration.
			WithLabelValues(c.Request.Method, normalizeRoute(c.FullPath()), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ReservationWritten(operation string) {
	if m == nil {
		return
	}
	m.reservationWrites.WithLabelValues(operation).Inc()
}

func (m *Metrics) ReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

func (m *Metrics) TurnaroundWarning() {
	if m == nil {
		return
	}
	m.turnaroundWarnings.Inc()
}

func (m *Metrics) Reconciled(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.reconciliations.WithLabelValues(result).Inc()
}

func (m *Metrics) UnitDirtied(trigger string) {
	if m == nil {
		return
	}
	m.unitsDirtied.WithLabelValues(trigger).Inc()
}

// normalizeRoute keeps label cardinality bounded: unmatched paths collapse
// into a single value.
func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "unmatched"
	}
	return route
}
