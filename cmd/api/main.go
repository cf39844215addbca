// Package main provides the API server entry point.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lllypuk/statuswatch/internal/bootstrap"
	"github.com/lllypuk/statuswatch/internal/config"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg, cfg.App.Name)
	if err = run(cfg, logger); err != nil {
		logger.Error("api server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run serves HTTP until a shutdown signal, then drains requests and
// releases the container.
func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting statuswatch API server",
		slog.String("version", version),
		slog.String("environment", bootstrap.Environment(cfg)),
		slog.String("mode", string(cfg.App.Mode)),
	)

	container, err := NewContainer(cfg, WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := container.Close(); closeErr != nil {
			logger.Error("container close error", slog.String("error", closeErr.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// В mock-режиме планировщик работает в процессе API
	if container.Scheduler != nil {
		go func() {
			if runErr := container.Scheduler.Run(ctx); runErr != nil && ctx.Err() == nil {
				logger.Error("health scheduler error", slog.String("error", runErr.Error()))
			}
		}()
	}

	server := newServer(container)
	SetupRoutes(container, server.Echo())

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	if err = server.Shutdown(context.Background()); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}
