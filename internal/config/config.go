// Package config provides configuration loading and validation for the status engine.
package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultJWTLeeway          = 30 * time.Second
	DefaultJWTRefreshInterval = 1 * time.Hour

	DefaultConfigStoreTimeout = 10 * time.Second

	DefaultScanInterval      = 30 * time.Second
	DefaultPollInterval      = 60 * time.Second
	DefaultRequestTimeout    = 10 * time.Second
	DefaultMaxJitter         = 10 * time.Second
	DefaultFailureThreshold  = 2
	DefaultRecoveryThreshold = 1
	DefaultSyncSchedule      = "0 * * * *"
	DefaultTenantConcurrency = 8

	DefaultWorkerHealthPort = 8081
)

// AppMode defines the application wiring mode.
type AppMode string

// Application wiring modes.
const (
	// AppModeReal uses MongoDB, Redis, Keycloak and the configuration service.
	// This is the default mode and should be used in production.
	AppModeReal AppMode = "real"

	// AppModeMock keeps everything in memory and authenticates every request
	// as a fixed operator. Not allowed in production.
	AppModeMock AppMode = "mock"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the complete application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	MongoDB     MongoDBConfig     `yaml:"mongodb"`
	Redis       RedisConfig       `yaml:"redis"`
	Keycloak    KeycloakConfig    `yaml:"keycloak"`
	ConfigStore ConfigStoreConfig `yaml:"configstore"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	EventBus    EventBusConfig    `yaml:"eventbus"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Mock        MockConfig        `yaml:"mock"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	// Mode controls dependency wiring: "real" (default) or "mock".
	Mode AppMode `yaml:"mode" env:"APP_MODE"`

	// Name is the application name used in logs.
	Name string `yaml:"name" env:"APP_NAME"`

	// Environment is "development" or "production".
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// IsRealMode returns true if the application should use real implementations.
func (c AppConfig) IsRealMode() bool {
	return c.Mode == "" || c.Mode == AppModeReal
}

// IsMockMode returns true if the application should use mock implementations.
func (c AppConfig) IsMockMode() bool {
	return c.Mode == AppModeMock
}

// ServerConfig holds HTTP server configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	BodyLimit       string        `yaml:"body_limit" env:"SERVER_BODY_LIMIT"`
}

// Address returns host:port.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MongoDBConfig holds MongoDB connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// RedisConfig holds Redis connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// KeycloakConfig holds Keycloak configuration. The client credentials are
// used for the configuration service token, the JWT section for API tokens.
//
//nolint:golines // Struct tags require longer lines for readability
type KeycloakConfig struct {
	URL          string    `yaml:"url" env:"KEYCLOAK_URL"`
	Realm        string    `yaml:"realm" env:"KEYCLOAK_REALM"`
	ClientID     string    `yaml:"client_id" env:"KEYCLOAK_CLIENT_ID"`
	ClientSecret string    `yaml:"client_secret" env:"KEYCLOAK_CLIENT_SECRET"`
	JWT          JWTConfig `yaml:"jwt"`
}

// JWTConfig holds JWT validation configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type JWTConfig struct {
	Leeway          time.Duration `yaml:"leeway" env:"KEYCLOAK_JWT_LEEWAY"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"KEYCLOAK_JWT_REFRESH_INTERVAL"`
	TenantClaim     string        `yaml:"tenant_claim" env:"KEYCLOAK_JWT_TENANT_CLAIM"`
	TenantNameClaim string        `yaml:"tenant_name_claim" env:"KEYCLOAK_JWT_TENANT_NAME_CLAIM"`
}

// ConfigStoreConfig holds the per-tenant configuration service settings.
//
//nolint:golines // Struct tags require longer lines for readability
type ConfigStoreConfig struct {
	BaseURL   string        `yaml:"base_url" env:"CONFIGSTORE_BASE_URL"`
	Namespace string        `yaml:"namespace" env:"CONFIGSTORE_NAMESPACE"`
	Service   string        `yaml:"service" env:"CONFIGSTORE_SERVICE"`
	Timeout   time.Duration `yaml:"timeout" env:"CONFIGSTORE_TIMEOUT"`
}

// SchedulerConfig holds health check scheduler settings.
//
//nolint:golines // Struct tags require longer lines for readability
type SchedulerConfig struct {
	Enabled           bool          `yaml:"enabled" env:"SCHEDULER_ENABLED"`
	ScanInterval      time.Duration `yaml:"scan_interval" env:"SCHEDULER_SCAN_INTERVAL"`
	PollInterval      time.Duration `yaml:"poll_interval" env:"SCHEDULER_POLL_INTERVAL"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"SCHEDULER_REQUEST_TIMEOUT"`
	MaxJitter         time.Duration `yaml:"max_jitter" env:"SCHEDULER_MAX_JITTER"`
	FailureThreshold  int           `yaml:"failure_threshold" env:"SCHEDULER_FAILURE_THRESHOLD"`
	RecoveryThreshold int           `yaml:"recovery_threshold" env:"SCHEDULER_RECOVERY_THRESHOLD"`
	SyncSchedule      string        `yaml:"sync_schedule" env:"SCHEDULER_SYNC_SCHEDULE"`
	TenantConcurrency int           `yaml:"tenant_concurrency" env:"SCHEDULER_TENANT_CONCURRENCY"`
	HealthPort        int           `yaml:"health_port" env:"SCHEDULER_HEALTH_PORT"`
}

// Event bus types.
const (
	EventBusRedis    = "redis"
	EventBusInMemory = "inmemory"
)

// EventBusConfig selects the event transport.
//
//nolint:golines // Struct tags require longer lines for readability
type EventBusConfig struct {
	Type               string `yaml:"type" env:"EVENTBUS_TYPE"`
	RedisChannelPrefix string `yaml:"redis_channel_prefix" env:"EVENTBUS_REDIS_CHANNEL_PREFIX"`
}

// LogConfig holds logging configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
}

// MockConfig describes the fixed operator of mock mode.
//
//nolint:golines // Struct tags require longer lines for readability
type MockConfig struct {
	TenantID   string `yaml:"tenant_id" env:"MOCK_TENANT_ID"`
	TenantName string `yaml:"tenant_name" env:"MOCK_TENANT_NAME"`
}

// DefaultConfig returns the configuration used when neither file nor env set a value.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Mode: AppModeReal, Name: "statuswatch", Environment: EnvDevelopment},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			BodyLimit:       DefaultBodyLimit,
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "statuswatch",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{Addr: "localhost:6379", PoolSize: DefaultRedisPoolSize},
		Keycloak: KeycloakConfig{
			URL:      "http://localhost:8090",
			Realm:    "statuswatch",
			ClientID: "statuswatch-engine",
			JWT: JWTConfig{
				Leeway:          DefaultJWTLeeway,
				RefreshInterval: DefaultJWTRefreshInterval,
				TenantClaim:     "tenant_id",
				TenantNameClaim: "tenant_name",
			},
		},
		ConfigStore: ConfigStoreConfig{
			BaseURL:   "http://localhost:8070",
			Namespace: "status",
			Service:   "applications",
			Timeout:   DefaultConfigStoreTimeout,
		},
		Scheduler: SchedulerConfig{
			Enabled:           true,
			ScanInterval:      DefaultScanInterval,
			PollInterval:      DefaultPollInterval,
			RequestTimeout:    DefaultRequestTimeout,
			MaxJitter:         DefaultMaxJitter,
			FailureThreshold:  DefaultFailureThreshold,
			RecoveryThreshold: DefaultRecoveryThreshold,
			SyncSchedule:      DefaultSyncSchedule,
			TenantConcurrency: DefaultTenantConcurrency,
			HealthPort:        DefaultWorkerHealthPort,
		},
		EventBus: EventBusConfig{Type: EventBusRedis, RedisChannelPrefix: "statuswatch:events:"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Metrics:  MetricsConfig{Enabled: true},
		Mock:     MockConfig{TenantID: "mock-tenant", TenantName: "Mock"},
	}
}

// IsDevelopment is true when debug logging is on; routes are printed then.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Log.Level) == "debug"
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, EnvProduction)
}

// UsesRedisBus reports whether events go through Redis.
func (c *Config) UsesRedisBus() bool {
	return c.App.IsRealMode() && strings.EqualFold(c.EventBus.Type, EventBusRedis)
}
