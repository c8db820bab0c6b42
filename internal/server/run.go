package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Run serves the calculator on cfg.Address until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func Run(ctx context.Context, cfg *Config, logger *zap.Logger, version string) error {
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address, err)
	}
	return Serve(ctx, listener, cfg, logger, version)
}

// Serve is Run on an already bound listener.
func Serve(ctx context.Context, listener net.Listener, cfg *Config, logger *zap.Logger, version string) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:      NewHandler(logger, cfg.BodySizeBytes(), version),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", listener.Addr().String()),
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", zap.String("op", "server.Serve"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-serverErr
}
