package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// ShutdownTimeout bounds a graceful shutdown of the telemetry listener.
const ShutdownTimeout = 5 * time.Second

// Endpoint serves /metrics on a dedicated listener.
type Endpoint struct {
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint returns an Endpoint, or an error when telemetry is disabled or
// no dedicated listener is configured.
func NewEndpoint(settings *conf.Settings, m *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}
	if settings.Telemetry.Listen == "" {
		return nil, fmt.Errorf("telemetry listen address not set")
	}
	return &Endpoint{listenAddress: settings.Telemetry.Listen, metrics: m}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (e *Endpoint) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("telemetry listener: %w", err)
	}
	return e.serve(ctx, ln)
}

func (e *Endpoint) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.metrics.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		GetLogger().Info("telemetry endpoint starting", logger.String("address", ln.Addr().String()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	GetLogger().Info("stopping telemetry endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
