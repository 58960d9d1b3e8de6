// Package api exposes Vigil's HTTP surface: event submission, alert queries
// and lifecycle actions, stats, a live alert stream over WebSocket, and
// Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"vigil/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NotificationTester sends a probe message over a single channel so an
// operator can verify SMTP or webhook settings without waiting for a rule
// to fire.
type NotificationTester interface {
	SendTest(ctx context.Context, channel string, target string) error
}

// Server is the Vigil HTTP API server.
type Server struct {
	engine  *service.EngineService
	alerts  *service.AlertService
	bus     *service.AlertBus
	tester  NotificationTester
	limiter *RateLimiter
	router  *mux.Router
	server  *http.Server
	logger  *zap.SugaredLogger
	started time.Time
}

// ServerOptions carries the API server dependencies and settings.
type ServerOptions struct {
	Engine  *service.EngineService
	Alerts  *service.AlertService
	Bus     *service.AlertBus
	Tester  NotificationTester
	Address string
	// Per-client rate limiting; zero values disable it
	RequestsPerSecond int
	Burst             int
	Logger            *zap.SugaredLogger
}

func NewServer(opts ServerOptions) *Server {
	s := &Server{
		engine:  opts.Engine,
		alerts:  opts.Alerts,
		bus:     opts.Bus,
		tester:  opts.Tester,
		router:  mux.NewRouter(),
		logger:  opts.Logger,
		started: time.Now(),
	}

	if opts.RequestsPerSecond > 0 {
		s.limiter = NewRateLimiter(opts.RequestsPerSecond, opts.Burst, opts.Logger)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         opts.Address,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware)
	}

	s.router.HandleFunc("/api/events", s.submitEvent).Methods("POST")
	s.router.HandleFunc("/api/alerts", s.getAlerts).Methods("GET")
	s.router.HandleFunc("/api/alerts/stream", s.streamAlerts).Methods("GET")
	s.router.HandleFunc("/api/alerts/{id}", s.getAlert).Methods("GET")
	s.router.HandleFunc("/api/alerts/{id}/acknowledge", s.acknowledgeAlert).Methods("POST")
	s.router.HandleFunc("/api/alerts/{id}/dismiss", s.dismissAlert).Methods("POST")
	s.router.HandleFunc("/api/rules", s.getRules).Methods("GET")
	s.router.HandleFunc("/api/stats", s.getStats).Methods("GET")
	s.router.HandleFunc("/api/notifications/test", s.testNotification).Methods("POST")
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called; a clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Infow("API server listening", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("API server shutting down")
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugw("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}
