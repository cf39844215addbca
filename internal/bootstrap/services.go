package bootstrap

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/statuswatch/internal/config"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/infrastructure/configstore"
	"github.com/lllypuk/statuswatch/internal/infrastructure/eventbus"
	"github.com/lllypuk/statuswatch/internal/infrastructure/healthcheck"
	"github.com/lllypuk/statuswatch/internal/infrastructure/keycloak"
	"github.com/lllypuk/statuswatch/internal/infrastructure/metrics"
	"github.com/lllypuk/statuswatch/internal/worker"
)

// токен сервисного аккаунта обновляется заранее
const serviceTokenRefreshBuffer = 30 * time.Second

// EventBus publishes events and accepts subscribers.
type EventBus interface {
	event.Bus
	eventbus.Subscriber
}

// NewMetrics creates a registry with runtime collectors and the scheduler metrics.
func NewMetrics() (*prometheus.Registry, *metrics.SchedulerMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, metrics.NewSchedulerMetrics(registry)
}

// NewEventBus returns a Redis bus when a client is given, an in-process one otherwise.
// The second result is the Redis bus itself, it needs Start and Shutdown.
func NewEventBus(
	cfg *config.Config,
	client *redis.Client,
	m *metrics.SchedulerMetrics,
	logger *slog.Logger,
) (EventBus, *eventbus.RedisEventBus) {
	if client == nil {
		return eventbus.NewInProcessBus(logger, m.EventPublished), nil
	}

	bus := eventbus.NewRedisEventBus(
		client,
		eventbus.WithLogger(logger),
		eventbus.WithChannelPrefix(cfg.EventBus.RedisChannelPrefix),
		eventbus.WithPublishObserver(m.EventPublished),
	)
	return bus, bus
}

// NewConfigStore creates the configuration service client authenticated
// with the engine's service account.
func NewConfigStore(cfg *config.Config, logger *slog.Logger) (*configstore.Client, error) {
	tokens := keycloak.NewServiceTokenManager(keycloak.ServiceTokenConfig{
		KeycloakURL:   cfg.Keycloak.URL,
		Realm:         cfg.Keycloak.Realm,
		ClientID:      cfg.Keycloak.ClientID,
		ClientSecret:  cfg.Keycloak.ClientSecret,
		RefreshBuffer: serviceTokenRefreshBuffer,
	})

	return configstore.NewClient(configstore.ClientConfig{
		BaseURL:   cfg.ConfigStore.BaseURL,
		Namespace: cfg.ConfigStore.Namespace,
		Service:   cfg.ConfigStore.Service,
		Timeout:   cfg.ConfigStore.Timeout,
		Logger:    logger,
	}, tokens)
}

// NewScheduler wires the health scheduler with an HTTP prober.
func NewScheduler(
	cfg *config.Config,
	repo status.Repository,
	history status.HistoryStore,
	bus event.Bus,
	m *metrics.SchedulerMetrics,
	logger *slog.Logger,
) *worker.HealthScheduler {
	prober := healthcheck.NewHTTPProber(healthcheck.WithTimeout(cfg.Scheduler.RequestTimeout))
	return worker.NewHealthScheduler(repo, history, prober, bus, m, logger, SchedulerConfig(cfg))
}

// SchedulerConfig maps the scheduler section onto the health scheduler.
func SchedulerConfig(cfg *config.Config) worker.HealthSchedulerConfig {
	s := cfg.Scheduler
	return worker.HealthSchedulerConfig{
		ScanInterval: s.ScanInterval,
		PollInterval: s.PollInterval,
		MaxJitter:    s.MaxJitter,
		Policy:       status.Policy{FailureThreshold: s.FailureThreshold, RecoveryThreshold: s.RecoveryThreshold},
		Enabled:      s.Enabled,
	}
}

// OrphanSyncConfig включает поиск сирот вместе с планировщиком.
func OrphanSyncConfig(cfg *config.Config) worker.OrphanSyncConfig {
	sync := worker.DefaultOrphanSyncConfig()
	sync.Schedule = cfg.Scheduler.SyncSchedule
	sync.Enabled = cfg.Scheduler.Enabled
	return sync
}
