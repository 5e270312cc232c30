// Package metrics provides Prometheus metrics for Tonearm.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tonearm"

// Metrics holds every Tonearm collector and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Accounts
	RegistrationsTotal *prometheus.CounterVec
	LoginsTotal        *prometheus.CounterVec
	UsersDeletedTotal  prometheus.Counter

	// Catalog
	AlbumsCreatedTotal  prometheus.Counter
	ArtistsCreatedTotal prometheus.Counter
	ReviewsCreatedTotal prometheus.Counter

	// Transactions
	TxDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),

		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounts",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounts",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),

		UsersDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounts",
			Name:      "deleted_total",
			Help:      "Accounts deleted by their owners.",
		}),

		AlbumsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "albums_created_total",
			Help:      "Albums added to the catalog.",
		}),

		ArtistsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "artists_created_total",
			Help:      "Artists created implicitly by album additions.",
		}),

		ReviewsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "created_total",
			Help:      "Album reviews submitted.",
		}),

		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "tx_duration_seconds",
			Help:      "Unit of work duration by operation and isolation level.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation", "isolation"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.UsersDeletedTotal,
		m.AlbumsCreatedTotal,
		m.ArtistsCreatedTotal,
		m.ReviewsCreatedTotal,
		m.TxDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTx records the duration of a unit of work started at start.
func (m *Metrics) ObserveTx(operation, isolation string, start time.Time) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(operation, isolation).Observe(time.Since(start).Seconds())
}

// RecordRegistration counts a registration attempt. Nil-safe, like every Record method.
func (m *Metrics) RecordRegistration(result string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordUserDeleted counts a self-service account deletion.
func (m *Metrics) RecordUserDeleted() {
	if m == nil {
		return
	}
	m.UsersDeletedTotal.Inc()
}

// RecordAlbumCreated counts an album and, if one was inserted, its artist.
func (m *Metrics) RecordAlbumCreated(artistCreated bool) {
	if m == nil {
		return
	}
	m.AlbumsCreatedTotal.Inc()
	if artistCreated {
		m.ArtistsCreatedTotal.Inc()
	}
}

// RecordReviewCreated counts a submitted review.
func (m *Metrics) RecordReviewCreated() {
	if m == nil {
		return
	}
	m.ReviewsCreatedTotal.Inc()
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
