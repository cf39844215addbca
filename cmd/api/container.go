package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/statuswatch/internal/application/reconcile"
	statusapp "github.com/lllypuk/statuswatch/internal/application/status"
	"github.com/lllypuk/statuswatch/internal/bootstrap"
	"github.com/lllypuk/statuswatch/internal/config"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	httphandler "github.com/lllypuk/statuswatch/internal/handler/http"
	"github.com/lllypuk/statuswatch/internal/infrastructure/configstore"
	"github.com/lllypuk/statuswatch/internal/infrastructure/eventbus"
	"github.com/lllypuk/statuswatch/internal/infrastructure/healthcheck"
	"github.com/lllypuk/statuswatch/internal/infrastructure/keycloak"
	"github.com/lllypuk/statuswatch/internal/infrastructure/metrics"
	"github.com/lllypuk/statuswatch/internal/infrastructure/repository/memory"
	"github.com/lllypuk/statuswatch/internal/middleware"
	"github.com/lllypuk/statuswatch/internal/service"
	"github.com/lllypuk/statuswatch/internal/worker"
)

const containerInitTimeout = 30 * time.Second

// Container holds the API dependencies and releases them on Close.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Storage  *bootstrap.Storage // nil in mock mode
	Redis    *redis.Client
	EventBus bootstrap.EventBus
	RedisBus *eventbus.RedisEventBus

	Registry *prometheus.Registry
	Metrics  *metrics.SchedulerMetrics

	AppRepo     status.Repository
	History     status.HistoryStore
	ConfigStore status.ConfigStore
	Reconciler  *reconcile.Manager

	// Scheduler is set only in mock mode, otherwise polling runs in cmd/worker.
	Scheduler *worker.HealthScheduler

	ApplicationService *service.ApplicationService
	ApplicationHandler *httphandler.ApplicationHandler
	Health             *healthcheck.Registry

	JWTValidator   keycloak.JWTValidator
	AuthMiddleware echo.MiddlewareFunc
}

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer wires the API for config.App.Mode. Whatever was opened
// before a failure is closed again.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{Config: cfg, Logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.IsProduction() && cfg.App.IsMockMode() {
		return nil, config.ErrMockModeInProd
	}

	c.Registry, c.Metrics = bootstrap.NewMetrics()

	var err error
	if cfg.App.IsMockMode() {
		c.Logger.Warn("container starting in MOCK mode", slog.String("tenant_id", cfg.Mock.TenantID))
		err = c.wireMock()
	} else {
		c.Logger.Info("container starting in REAL mode", slog.String("event_bus", cfg.EventBus.Type))
		err = c.wireReal()
	}
	if err == nil {
		err = c.checkWiring()
	}
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.wireHandlers()
	return c, nil
}

// wireMock держит все в памяти и запускает планировщик внутри API.
func (c *Container) wireMock() error {
	c.AppRepo = memory.NewApplicationRepository()
	c.History = memory.NewHistoryStore()
	c.ConfigStore = configstore.NewMemoryStore()

	c.EventBus, _ = bootstrap.NewEventBus(c.Config, nil, c.Metrics, c.Logger)
	if err := eventbus.NewAuditLogger(c.Logger).Register(c.EventBus); err != nil {
		return err
	}

	mock := middleware.MockOperatorClaims(c.Config.Mock.TenantID, c.Config.Mock.TenantName)
	c.AuthMiddleware = middleware.Auth(c.authConfig(nil, mock))
	c.Scheduler = bootstrap.NewScheduler(c.Config, c.AppRepo, c.History, c.EventBus, c.Metrics, c.Logger)
	c.Health = healthcheck.NewRegistry()
	c.Reconciler = c.newReconciler()
	return nil
}

func (c *Container) wireReal() error {
	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()

	var err error
	if c.Storage, err = bootstrap.OpenStorage(ctx, c.Config.MongoDB, c.Logger); err != nil {
		return err
	}
	c.AppRepo, c.History = c.Storage.Applications, c.Storage.History
	c.Health = healthcheck.NewRegistry(healthcheck.NewMongoChecker(c.Storage.Client))

	if c.Config.UsesRedisBus() {
		if c.Redis, err = bootstrap.OpenRedis(ctx, c.Config.Redis, c.Logger); err != nil {
			return err
		}
		c.Health.Add(healthcheck.NewRedisChecker(c.Redis))
	}
	// через Redis API только публикует, подписчики живут в воркере
	c.EventBus, c.RedisBus = bootstrap.NewEventBus(c.Config, c.Redis, c.Metrics, c.Logger)
	if c.RedisBus == nil {
		if err = eventbus.NewAuditLogger(c.Logger).Register(c.EventBus); err != nil {
			return err
		}
	}

	if c.ConfigStore, err = bootstrap.NewConfigStore(c.Config, c.Logger); err != nil {
		return fmt.Errorf("config store: %w", err)
	}

	kc := c.Config.Keycloak
	c.JWTValidator, err = keycloak.NewJWTValidator(keycloak.JWTValidatorConfig{
		KeycloakURL:     kc.URL,
		Realm:           kc.Realm,
		ClientID:        kc.ClientID,
		Leeway:          kc.JWT.Leeway,
		RefreshInterval: kc.JWT.RefreshInterval,
		TenantClaim:     kc.JWT.TenantClaim,
		TenantNameClaim: kc.JWT.TenantNameClaim,
		Logger:          c.Logger,
	})
	if err != nil {
		return fmt.Errorf("jwt validator: %w", err)
	}
	c.AuthMiddleware = middleware.Auth(c.authConfig(middleware.NewKeycloakValidatorAdapter(c.JWTValidator), nil))

	c.Reconciler = c.newReconciler()
	return nil
}

func (c *Container) authConfig(validator middleware.TokenValidator, mock *middleware.TokenClaims) middleware.AuthConfig {
	cfg := middleware.DefaultAuthConfig()
	cfg.Logger = c.Logger
	cfg.TokenValidator = validator
	cfg.MockClaims = mock
	return cfg
}

func (c *Container) newReconciler() *reconcile.Manager {
	return reconcile.NewManager(c.AppRepo, c.ConfigStore,
		reconcile.WithLogger(c.Logger),
		reconcile.WithConcurrency(c.Config.Scheduler.TenantConcurrency),
	)
}

// stopper returns the in-process scheduler, or nil when it runs elsewhere.
func (c *Container) stopper() statusapp.TaskStopper {
	if c.Scheduler == nil {
		return nil
	}
	return c.Scheduler
}

func (c *Container) wireHandlers() {
	stopper := c.stopper()

	c.ApplicationService = service.NewApplicationService(service.ApplicationServiceConfig{
		ListUC:    statusapp.NewListApplicationsUseCase(c.Reconciler),
		GetUC:     statusapp.NewGetApplicationUseCase(c.Reconciler),
		CreateUC:  statusapp.NewCreateApplicationUseCase(c.AppRepo, c.ConfigStore, c.EventBus, c.Logger),
		UpdateUC:  statusapp.NewUpdateApplicationUseCase(c.AppRepo, c.ConfigStore, c.Logger),
		DeleteUC:  statusapp.NewDeleteApplicationUseCase(c.AppRepo, c.ConfigStore, c.EventBus, stopper, c.Logger),
		StateUC:   statusapp.NewChangeStateUseCase(c.AppRepo, c.Reconciler, c.EventBus, stopper, c.Logger),
		StatusUC:  statusapp.NewSetStatusUseCase(c.AppRepo, c.Reconciler, c.EventBus, c.Logger),
		EntriesUC: statusapp.NewGetEndpointEntriesUseCase(c.AppRepo, c.History),
	})
	c.ApplicationHandler = httphandler.NewApplicationHandler(c.ApplicationService)
}

func (c *Container) checkWiring() error {
	required := []struct {
		ok   bool
		name string
	}{
		{c.AppRepo != nil, "application repository"},
		{c.History != nil, "history store"},
		{c.ConfigStore != nil, "config store"},
		{c.EventBus != nil, "event bus"},
		{c.AuthMiddleware != nil, "auth middleware"},
		{c.Reconciler != nil, "reconciler"},
	}

	var errs []error
	for _, r := range required {
		if !r.ok {
			errs = append(errs, fmt.Errorf("%s not initialized", r.name))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of creation. Safe to call twice.
func (c *Container) Close() error {
	var errs []error
	closeStep := func(name string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		c.Logger.Debug(name + " closed")
	}

	if c.Scheduler != nil {
		c.Scheduler.StopAll()
	}
	if c.JWTValidator != nil {
		closeStep("jwt validator", c.JWTValidator.Close)
		c.JWTValidator = nil
	}
	if c.RedisBus != nil {
		closeStep("event bus", c.RedisBus.Shutdown)
	}
	if c.Redis != nil {
		closeStep("redis", c.Redis.Close)
		c.Redis = nil
	}
	if c.Storage != nil {
		closeStep("mongodb", c.Storage.Close)
		c.Storage = nil
	}

	return errors.Join(errs...)
}
