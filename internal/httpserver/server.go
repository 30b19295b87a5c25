package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/mimic/internal/config"
	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mimic/internal/httpserver/mw"
	"github.com/MrSnakeDoc/mimic/internal/httpserver/routes"
	"github.com/MrSnakeDoc/mimic/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the router with its middlewares and the dispatcher.
func NewRouter(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) http.Handler {
	classifier := routes.NewClassifier(cfg.AdminPrefix)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)                 // X-Request-ID on each request
	r.Use(mw.Classify(classifier))              // request kind, computed once
	r.Use(mw.Log(loggerClient, cfg.TrustProxy)) // structured access logs
	if d.Metrics != nil {
		r.Use(mw.Metrics(d.Metrics))
	}
	r.Use(middleware.Recoverer) // contract violations become 500s
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(mw.LimitBody(cfg.MaxBodyBytes))

	routes.Mount(r, d, classifier)
	return r
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(cfg, loggerClient, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		logger: loggerClient,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
