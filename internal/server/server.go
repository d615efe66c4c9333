// Package server exposes the cached market views over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/server/handler"
	"github.com/alanyoungcy/predibet/internal/server/middleware"
)

// ServiceName is reported by the root descriptor.
const ServiceName = "Polymarket Backend API"

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// StaticDir, when set, is served for every path without an API route.
	StaticDir string
	// WriteTimeout bounds a whole response, including a cold-cache refresh.
	// Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
	RateLimit    RateLimitConfig
}

// DefaultWriteTimeout is used when Config.WriteTimeout is zero.
const DefaultWriteTimeout = 90 * time.Second

// RateLimitConfig enables per-client limiting when Limiter is non-nil.
type RateLimitConfig struct {
	Limiter  domain.RateLimiter
	Requests int
	Window   time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health     *handler.HealthHandler
	Markets    *handler.MarketHandler
	Categories *handler.CategoryHandler
	Stats      *handler.StatsHandler
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server is the read-only HTTP API in front of the snapshot cache.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// endpoints lists the API routes advertised by the root descriptor.
var endpoints = map[string]string{
	"health":     "/health",
	"ready":      "/api/ready",
	"markets":    "/api/markets?limit=1000&min_volume=0&category=&search=",
	"top":        "/api/markets/top/{n}",
	"market":     "/api/markets/{id}",
	"categories": "/api/categories",
	"stats":      "/api/stats",
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, panic recovery and optional rate
// limiting). obs may be nil.
func NewServer(cfg Config, handlers Handlers, obs middleware.HTTPObserver, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	// --- Register routes ---

	mux.HandleFunc("GET /{$}", handler.NewInfoHandler(ServiceName, endpoints).Describe)

	// Health checks never touch the cache.
	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/ready", handlers.Health.Ready)

	// Market endpoints. The literal "top" segment wins over {id}.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/top/{n}", handlers.Markets.TopMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)

	mux.HandleFunc("GET /api/categories", handlers.Categories.ListCategories)
	mux.HandleFunc("GET /api/stats", handlers.Stats.GetStats)

	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	if cfg.StaticDir != "" {
		// FileServer redirects /index.html to ./, which the descriptor owns.
		mux.HandleFunc("GET /index.html", serveIndex(cfg.StaticDir))
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		mux.HandleFunc("/", handler.NotFound)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	if cfg.RateLimit.Limiter != nil {
		h = middleware.RateLimit(cfg.RateLimit.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)(h)
	}
	h = middleware.Recover(logger)(h)
	h = middleware.Logging(logger, obs)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		handler:    h,
		logger:     logger,
	}
}

// serveIndex serves dir/index.html in place without the FileServer redirect.
func serveIndex(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := os.Open(filepath.Join(dir, "index.html"))
		if err != nil {
			handler.NotFound(w, r)
			return
		}
		defer f.Close()

		st, err := f.Stat()
		if err != nil || st.IsDir() {
			handler.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "index.html", st.ModTime(), f)
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting",
		slog.String("addr", ln.Addr().String()),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
