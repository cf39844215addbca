// Package main provides the worker service entry point: the health scheduler,
// the orphan sync job and the event bus subscribers.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lllypuk/statuswatch/internal/application/reconcile"
	"github.com/lllypuk/statuswatch/internal/bootstrap"
	"github.com/lllypuk/statuswatch/internal/config"
	"github.com/lllypuk/statuswatch/internal/infrastructure/eventbus"
	"github.com/lllypuk/statuswatch/internal/infrastructure/healthcheck"
	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
	"github.com/lllypuk/statuswatch/internal/worker"
)

const version = "0.1.0"

var errMockMode = errors.New("worker service requires real mode, in mock mode the API runs the scheduler")

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg, cfg.App.Name+"-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	err = run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("worker service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("worker service shutdown complete")
}

//nolint:funlen // startup orchestration reads top to bottom
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.App.IsMockMode() {
		return errMockMode
	}

	logger.InfoContext(ctx, "starting statuswatch worker service",
		slog.String("version", version),
		slog.String("environment", bootstrap.Environment(cfg)),
	)

	storage, err := bootstrap.OpenStorage(ctx, cfg.MongoDB, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "mongodb", storage.Close)

	registry, schedulerMetrics := bootstrap.NewMetrics()
	health := healthcheck.NewRegistry(healthcheck.NewMongoChecker(storage.Client))

	var client *redis.Client
	if cfg.UsesRedisBus() {
		if client, err = bootstrap.OpenRedis(ctx, cfg.Redis, logger); err != nil {
			return err
		}
		defer closeLogged(logger, "redis", client.Close)
		health.Add(healthcheck.NewRedisChecker(client))
	}

	bus, redisBus := bootstrap.NewEventBus(cfg, client, schedulerMetrics, logger)
	if redisBus != nil {
		health.Add(healthcheck.NewFuncChecker("eventbus", func(context.Context) error {
			if !redisBus.IsRunning() {
				return errors.New("event bus is not running")
			}
			return nil
		}))
	}

	if err = eventbus.NewAuditLogger(logger).Register(bus); err != nil {
		return err
	}

	store, err := bootstrap.NewConfigStore(cfg, logger)
	if err != nil {
		return err
	}
	reconciler := reconcile.NewManager(storage.Applications, store,
		reconcile.WithLogger(logger),
		reconcile.WithConcurrency(cfg.Scheduler.TenantConcurrency),
	)

	scheduler := bootstrap.NewScheduler(cfg, storage.Applications, storage.History, bus, schedulerMetrics, logger)
	orphanSync, err := worker.NewOrphanSyncJob(reconciler, schedulerMetrics, logger, bootstrap.OrphanSyncConfig(cfg))
	if err != nil {
		return err
	}

	server := newHealthServer(cfg, health, registry, logger)

	logger.InfoContext(ctx, "starting workers",
		slog.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		slog.Duration("poll_interval", cfg.Scheduler.PollInterval),
		slog.String("sync_schedule", cfg.Scheduler.SyncSchedule),
		slog.Int("health_port", cfg.Scheduler.HealthPort),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(scheduler.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(orphanSync.Run(gctx)) })
	if redisBus != nil {
		g.Go(func() error { return ignoreCanceled(redisBus.Start(gctx)) })
	}
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}

// newHealthServer serves /health, /ready, /health/details and /metrics on the health port.
func newHealthServer(
	cfg *config.Config,
	checker httpserver.HealthChecker,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *httpserver.Server {
	serverCfg := httpserver.DefaultServerConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Scheduler.HealthPort
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout

	server := httpserver.NewServer(serverCfg, logger)
	server.RegisterRoutes(func(e *echo.Echo) {
		httpserver.NewHealthEndpoints(checker).Register(e)
		if cfg.Metrics.Enabled {
			e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
		}
	})
	return server
}

func closeLogged(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("failed to close "+name, slog.String("error", err.Error()))
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
