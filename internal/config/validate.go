package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Configuration errors.
var (
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrMissingRequired     = errors.New("missing required configuration")
	ErrInvalidDuration     = errors.New("invalid duration format")
	ErrInvalidLogLevel     = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat    = errors.New("invalid log format: must be json or text")
	ErrInvalidEventBusType = errors.New("invalid event bus type: must be redis or inmemory")
	ErrInvalidAppMode      = errors.New("invalid app mode: must be real or mock")
	ErrMockModeInProd      = errors.New("mock mode is not allowed in production")
	ErrInvalidSchedule     = errors.New("invalid cron schedule")
)

// validator собирает все ошибки, чтобы оператор увидел их за один запуск
type validator struct {
	errs []error
}

func (v *validator) add(err error) {
	v.errs = append(v.errs, err)
}

func (v *validator) required(value, path string) {
	if value == "" {
		v.add(fmt.Errorf("%w: %s", ErrMissingRequired, path))
	}
}

func (v *validator) positive(d time.Duration, path string) {
	if d <= 0 {
		v.add(fmt.Errorf("%s must be positive", path))
	}
}

func (v *validator) oneOf(value string, allowed []string, err error) {
	if !slices.Contains(allowed, strings.ToLower(value)) {
		v.add(err)
	}
}

// Validate checks the whole configuration. Infrastructure sections are only
// checked in real mode. The result wraps ErrConfigInvalid and every problem found.
func (c *Config) Validate() error {
	v := &validator{}

	c.validateApp(v)
	c.validateServer(v)
	if c.App.IsRealMode() {
		c.validateInfrastructure(v)
	} else {
		v.required(c.Mock.TenantID, "mock.tenant_id")
	}
	c.validateScheduler(v)

	v.oneOf(c.Log.Level, []string{"debug", "info", "warn", "error"}, ErrInvalidLogLevel)
	v.oneOf(c.Log.Format, []string{"json", "text"}, ErrInvalidLogFormat)
	v.oneOf(c.EventBus.Type, []string{EventBusRedis, EventBusInMemory}, ErrInvalidEventBusType)

	if len(v.errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(v.errs...))
	}
	return nil
}

func (c *Config) validateApp(v *validator) {
	switch c.App.Mode {
	case "", AppModeReal, AppModeMock:
	default:
		v.add(fmt.Errorf("%w: got %q", ErrInvalidAppMode, c.App.Mode))
	}
	if c.App.IsMockMode() && c.IsProduction() {
		v.add(ErrMockModeInProd)
	}
}

func (c *Config) validateServer(v *validator) {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		v.add(fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	v.positive(c.Server.ReadTimeout, "server.read_timeout")
	v.positive(c.Server.WriteTimeout, "server.write_timeout")
}

func (c *Config) validateInfrastructure(v *validator) {
	v.required(c.MongoDB.URI, "mongodb.uri")
	v.required(c.MongoDB.Database, "mongodb.database")
	if strings.EqualFold(c.EventBus.Type, EventBusRedis) {
		v.required(c.Redis.Addr, "redis.addr")
	}

	v.required(c.Keycloak.URL, "keycloak.url")
	v.required(c.Keycloak.Realm, "keycloak.realm")
	v.required(c.Keycloak.ClientID, "keycloak.client_id")

	v.required(c.ConfigStore.BaseURL, "configstore.base_url")
	v.required(c.ConfigStore.Namespace, "configstore.namespace")
	v.required(c.ConfigStore.Service, "configstore.service")
}

func (c *Config) validateScheduler(v *validator) {
	s := c.Scheduler
	v.positive(s.ScanInterval, "scheduler.scan_interval")
	v.positive(s.PollInterval, "scheduler.poll_interval")
	v.positive(s.RequestTimeout, "scheduler.request_timeout")
	if s.MaxJitter < 0 {
		v.add(errors.New("scheduler.max_jitter must not be negative"))
	}
	if s.FailureThreshold < 1 || s.RecoveryThreshold < 1 {
		v.add(errors.New("scheduler thresholds must be at least 1"))
	}
	if s.TenantConcurrency < 1 {
		v.add(errors.New("scheduler.tenant_concurrency must be at least 1"))
	}
	if _, err := cron.ParseStandard(s.SyncSchedule); err != nil {
		v.add(fmt.Errorf("%w: scheduler.sync_schedule %q", ErrInvalidSchedule, s.SyncSchedule))
	}
}
