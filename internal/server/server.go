// Package server exposes the validation checks over HTTP. Each endpoint runs
// one check against the configured source, or against a source described by
// query parameters, and returns the JSON report section for that check.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/engine"
	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/validate"
)

// Server serves the check endpoints.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	// cache holds the assembled feature map for the configured default
	// source when it is a CSV directory. Guarded by mu; invalidated by
	// the directory watcher.
	mu    sync.Mutex
	cache *feature.AssembleResult
}

// New creates a server for the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, logger: logger}
}

// Serve starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Info("starting server", "addr", addr, "source", s.cfg.Source.Type)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Source.Type == "csv" {
		eg.Go(func() error {
			return s.watchExtract(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// routes builds the router. Exposed to tests through Handler.
func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/geocoding", func(r chi.Router) {
		r.Get("/invalid-shapes", s.handleCheck(validate.CheckValidity))
		r.Get("/point-in-polygon", s.handleCheck(validate.CheckPointInPolygon))
		r.Get("/overlapping-polygons", s.handleCheck(validate.CheckOverlap))
		r.Get("/parent-containment", s.handleCheck(validate.CheckContainment))
	})
	return r
}

// Handler returns the HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// requestLogger logs one line per request through the server's logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// assembled returns the feature map for the request's source. Results for
// the default CSV source are cached until the extract directory changes;
// everything else assembles fresh, matching the behavior of a live database.
func (s *Server) assembled(ctx context.Context, cfg *config.Config, isDefault bool) (*feature.AssembleResult, error) {
	cacheable := isDefault && cfg.Source.Type == "csv"
	if cacheable {
		s.mu.Lock()
		if s.cache != nil {
			res := s.cache
			s.mu.Unlock()
			return res, nil
		}
		s.mu.Unlock()
	}

	res, err := engine.New(cfg, s.logger).Assemble(ctx)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.mu.Lock()
		s.cache = res
		s.mu.Unlock()
	}
	return res, nil
}

// invalidate drops the cached assembly.
func (s *Server) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}
