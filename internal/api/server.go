// Package api exposes the build service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"template-builder/internal/common/logger"
	"template-builder/internal/generator"
	"template-builder/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildService is the part of build.Service served over HTTP.
type BuildService interface {
	BuildTemplate(ctx context.Context, opts models.BuildOptions) *models.BuildResult
	GetBuildStatus(ctx context.Context, buildID string) (*models.TemplateBuild, error)
	GetTemplateBuilds(ctx context.Context, templateID string) ([]models.TemplateBuild, error)
	PreviewTemplate(ctx context.Context, templateID string) (*generator.Generation, error)
}

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	service BuildService
	checks  map[string]ReadinessCheck
	log     logger.Logger
}

func NewServer(service BuildService, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	return &Server{service: service, checks: checks, log: logger.ForComponent(log, "api")}
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/builds", s.createBuild)
		r.Get("/builds/{buildId}", s.getBuild)
		r.Get("/templates/{templateId}/builds", s.listTemplateBuilds)
		r.Get("/templates/{templateId}/components", s.previewComponents)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}

// Run serves on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", map[string]interface{}{"address": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down HTTP server", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
