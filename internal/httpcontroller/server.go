// Package httpcontroller serves the Oceanecho web UI and JSON API.
package httpcontroller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/observability"
	"github.com/oceanecho/oceanecho/internal/observability/metrics"
	"github.com/oceanecho/oceanecho/internal/samples"
)

// ShutdownTimeout bounds a graceful shutdown of the web server.
const ShutdownTimeout = 10 * time.Second

// BatchProcessor runs a predict action over a batch of inputs.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, inputs []analysis.Input) *analysis.BatchReport
}

// Server encapsulates the Echo server and its collaborators.
type Server struct {
	Echo      *echo.Echo
	Settings  *conf.Settings
	Processor BatchProcessor
	Samples   *samples.Library
	Uploads   *UploadStore
	Metrics   *observability.Metrics

	startedAt time.Time
	log       logger.Logger
}

// New builds the server, its middleware and routes. Metrics may be nil.
func New(settings *conf.Settings, proc BatchProcessor, lib *samples.Library, m *observability.Metrics) (*Server, error) {
	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		Processor: proc,
		Samples:   lib,
		Metrics:   m,
		startedAt: time.Now(),
		log:       GetLogger(),
	}

	uploads, err := NewUploadStore(settings.WebServer.UploadDir, settings.WebServer.UploadTTL, s.httpMetrics())
	if err != nil {
		return nil, err
	}
	s.Uploads = uploads

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	if err := s.setupTemplateRenderer(); err != nil {
		_ = uploads.Close()
		return nil, err
	}
	s.configureMiddleware()
	s.initRoutes()
	return s, nil
}

// Address returns the configured host:port.
func (s *Server) Address() string {
	return net.JoinHostPort(s.Settings.WebServer.Host, s.Settings.WebServer.Port)
}

// Run serves until ctx is cancelled, then shuts down and removes uploads.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Address())
	if err != nil {
		_ = s.Uploads.Close()
		return fmt.Errorf("web server listener: %w", err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	defer func() {
		if err := s.Uploads.Close(); err != nil {
			s.log.Warn("failed to clean up uploads", logger.Error(err))
		}
	}()

	s.Echo.Listener = ln
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web server starting", logger.String("address", ln.Addr().String()))
		errCh <- s.Echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("stopping web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics.HTTP
}
