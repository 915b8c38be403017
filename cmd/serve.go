package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DaBoB6868/dorm-ra-bot/internal/api"
	"github.com/DaBoB6868/dorm-ra-bot/internal/app"
	"github.com/DaBoB6868/dorm-ra-bot/internal/config"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ratelimit"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE streaming needs a longer timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the HTTP API server.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting HTTP API server", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	limiter := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow(),
	}, logger.With("component", "ratelimit"))
	go limiter.Run(ctx)

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:       logger,
		Orchestrator: a.Orchestrator,
		Limiter:      limiter,
		Pool:         a.DBPool,
		CORSOrigins:  cfg.CORSOrigins,
		IsDev:        cfg.Dev,
		TrustProxy:   cfg.TrustProxy,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ListenAddr,
		"api", "/api/v1/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
