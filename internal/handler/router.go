package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/auth"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/repository"
	"github.com/prn-tf/tonearm/internal/session"
)

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

// Router assembles the middleware chain and routes.
type Router struct {
	site        *SiteHandler
	sessions    *session.Store
	users       auth.UserLoader
	health      repository.DatabaseHealth
	metrics     *metrics.Metrics
	metricsPath string
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	SiteHandler *SiteHandler
	Sessions    *session.Store
	Users       auth.UserLoader
	Health      repository.DatabaseHealth

	// Metrics is optional; nil disables instrumentation and the metrics route.
	Metrics     *metrics.Metrics
	MetricsPath string

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		site:        config.SiteHandler,
		sessions:    config.Sessions,
		users:       config.Users,
		health:      config.Health,
		metrics:     config.Metrics,
		metricsPath: config.MetricsPath,
		logger:      config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(rt.accessLog)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	// Health check and metrics (no session)
	r.Get("/healthz", rt.handleHealth)
	if rt.metrics != nil && rt.metricsPath != "" {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(rt.sessions, rt.users, rt.logger))
		rt.site.RegisterRoutes(r)
	})

	return r
}

// accessLog tags each request with an id and logs it once served.
func (rt *Router) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := rt.logger.With().Str("request_id", requestID).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request served")
		}()

		next.ServeHTTP(ww, r)
	})
}

// handleHealth reports liveness and database reachability.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "healthy", "database": "ok"}
	if err := rt.health.Health(ctx); err != nil {
		rt.logger.Warn().Err(err).Msg("database health check failed")
		status = http.StatusServiceUnavailable
		body = map[string]string{"status": "unhealthy", "database": err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
