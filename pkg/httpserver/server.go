// Package httpserver is the optional HTTP front end for the embedded
// store: trimmed from a document-database API surface to the four
// operations this engine actually exposes, plus admin and metrics
// endpoints. The core engine
// (pkg/lsm, pkg/kvstore) has no network dependency; this package is the
// one and only place that wires chi, gorilla/websocket, and the admin
// auth guard together.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnohosten/lsmkv/pkg/adminauth"
	"github.com/mnohosten/lsmkv/pkg/kvstore"
	"github.com/mnohosten/lsmkv/pkg/lsm"
	"github.com/mnohosten/lsmkv/pkg/metrics"
)

// Server is the HTTP front end for a kvstore.Store.
type Server struct {
	config           *Config
	store            *kvstore.Store
	router           *chi.Mux
	httpSrv          *http.Server
	startTime        time.Time
	metricsCollector *metrics.Collector
	promExporter     *metrics.PrometheusExporter
	adminGuard       *adminauth.Guard
	eventHub         *eventHub
}

// New constructs a Server fronting store.
func New(config *Config, store *kvstore.Store) (*Server, error) {
	metricsCollector := metrics.NewCollector()
	promExporter := metrics.NewPrometheusExporter(metricsCollector)

	s := &Server{
		config:           config,
		store:            store,
		router:           chi.NewRouter(),
		startTime:        time.Now(),
		metricsCollector: metricsCollector,
		promExporter:     promExporter,
		eventHub:         newEventHub(),
	}

	if config.AdminSecret != "" {
		guard, err := adminauth.NewGuard(config.AdminSecret)
		if err != nil {
			return nil, fmt.Errorf("httpserver: derive admin guard: %w", err)
		}
		s.adminGuard = guard
	}

	events := make(chan lsm.Event, 64)
	store.Coordinator().Events = events
	go s.dispatchEvents(events)

	s.setupMiddleware()
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

// dispatchEvents records a metrics counter for every background flush and
// compaction the coordinator reports, then forwards the event to every
// connected websocket client. This is the only place flushes and
// compactions are counted, whether the admin API or the memtable
// threshold triggered them.
func (s *Server) dispatchEvents(events <-chan lsm.Event) {
	for e := range events {
		switch e.Kind {
		case lsm.EventFlush:
			s.metricsCollector.RecordFlush(0, true)
		case lsm.EventCompact:
			s.metricsCollector.RecordCompaction(0, true)
		}
		s.eventHub.broadcast(e)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	if s.config.EnableLogging {
		s.router.Use(middleware.Logger)
	}
	if s.config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}
	s.router.Use(s.requestSizeLimitMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/kv/{key}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Put("/", s.handlePut)
		r.Delete("/", s.handleDelete)
	})

	s.router.Get("/events", s.handleEvents)

	s.router.Route("/admin", func(r chi.Router) {
		if s.adminGuard != nil {
			r.Use(s.adminMiddleware)
		}
		r.Post("/flush", s.handleAdminFlush)
		r.Get("/stats", s.handleAdminStats)
	})

	s.router.Get("/metrics", s.handleMetrics)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.config.AllowedOrigins) > 0 {
			origin = s.config.AllowedOrigins[0]
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe starts the HTTP server. It blocks until the server stops
// or ctx is cancelled, in which case a graceful shutdown is attempted.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("httpserver: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server and flushes the store.
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	return s.store.Close()
}
