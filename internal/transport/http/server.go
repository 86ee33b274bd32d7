package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twdash/internal/config"
	"twdash/internal/middleware"
	"twdash/internal/websocket"
)

// Server wraps the HTTP server, its router and the websocket hub.
type Server struct {
	cfg     config.ServerConfig
	handler *DashboardHandler
	hub     *websocket.Hub
	logger  *slog.Logger
	srv     *http.Server
}

// NewServer builds the full routing tree around the dashboard handler.
func NewServer(cfg config.ServerConfig, service DashboardService, hub *websocket.Hub, output config.OutputConfig, logger *slog.Logger) *Server {
	handler := NewDashboardHandler(service, hub, output, logger)

	s := &Server{
		cfg:     cfg,
		handler: handler,
		hub:     hub,
		logger:  logger.With(slog.String("component", "http_server")),
	}

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(s.logger))
	r.Use(middleware.Recoverer(s.logger))

	r.Get("/", s.handler.Index)
	r.Get("/healthz", s.handler.Health)
	r.Get("/ws", s.handler.WebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			rl := middleware.NewRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst, s.logger)
			r.Use(rl.Handler)
		}
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout, s.logger))
		}
		r.Mount("/", s.handler.Routes())
	})

	return r
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.hub.Start()
	s.logger.Info("http server listening", slog.String("addr", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	err := s.srv.Shutdown(ctx)
	s.hub.Stop()
	return err
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
