// Package api serves the settings engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/service"
)

const maxBodyBytes = 1 << 20

// Server handles HTTP requests
type Server struct {
	svc          *service.Service
	ping         func(context.Context) error
	gatherer     prometheus.Gatherer
	timeout      time.Duration
	errorHandler *ErrorHandler
	log          zerolog.Logger
	startTime    time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithPing sets the database health check.
func WithPing(fn func(context.Context) error) Option {
	return func(s *Server) { s.ping = fn }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer creates a new API server
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		gatherer:  prometheus.DefaultGatherer,
		timeout:   30 * time.Second,
		log:       zerolog.Nop(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = NewErrorHandler(s.log)
	return s
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)

		r.Post("/device", s.handleRegisterDevice)
		r.Get("/device/{id}", s.handleGetDevice)
		r.Delete("/device/{id}", s.handleForgetDevice)

		r.Post("/generate", s.handleGenerate)
		r.Post("/validate", s.handleValidate)
		r.Post("/graphics", s.handleGraphics)
		r.Delete("/cache/{deviceId}", s.handleResetCache)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", s.handleSaveProfile)
			r.Get("/", s.handleListProfiles)
			r.Get("/{id}", s.handleGetProfile)
			r.Get("/{id}/share", s.handleShareProfile)
			r.Delete("/{id}", s.handleDeleteProfile)
		})
	})
	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

// decode reads a JSON body into dst, writing the 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		s.errorHandler.HandleDecodeError(w, r, err)
		return false
	}
	return true
}
