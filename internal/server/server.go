// Package server assembles the HTTP API: routes, middleware chain, and
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/predictarb/predictarb/internal/server/handler"
	"github.com/predictarb/predictarb/internal/server/middleware"
	"github.com/predictarb/predictarb/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	CORSOrigins  []string
	APIKey       string  // if empty, authentication is disabled
	RateLimitRPS float64 // per-IP requests per second; <=0 disables limiting
	RateBurst    int
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Alerts is nil when Postgres is not configured; the routes then return 501.
type Handlers struct {
	Health        *handler.HealthHandler
	Opportunities *handler.OpportunityHandler
	Alerts        *handler.AlertHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered and the middleware chain
// (rate limit, auth, logging, CORS) applied.
func New(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Opportunity read path.
	mux.HandleFunc("GET /api/arbitrage/opportunities-db", handlers.Opportunities.List)
	mux.HandleFunc("GET /api/arbitrage/stats", handlers.Opportunities.Stats)
	mux.HandleFunc("GET /api/arbitrage/history", handlers.Opportunities.History)

	// Alert CRUD.
	if handlers.Alerts != nil {
		mux.HandleFunc("POST /api/alerts/", handlers.Alerts.Create)
		mux.HandleFunc("DELETE /api/alerts/{id}", handlers.Alerts.Delete)
	} else {
		mux.HandleFunc("/api/alerts/", alertsDisabled)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 10
		}
		h = middleware.RateLimit(cfg.RateLimitRPS, burst)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func alertsDisabled(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotImplemented)
	w.Write([]byte(`{"error":"alert storage not configured"}`))
}
