package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aws-sqs-messaging-template/internal/pkg/http/handler"
	"aws-sqs-messaging-template/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer builds the health and metrics server.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handler.Healthz)
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run serves until ctx is done, then shuts the server down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed, error: %s", err.Error())
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP server shutdown failed, error: %s", err.Error())
		return err
	}
	logger.Info("HTTP server shut down gracefully")
	return nil
}
