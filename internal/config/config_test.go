package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.NotNil(t, cfg)
	assert.True(t, cfg.App.IsRealMode())
	assert.False(t, cfg.IsProduction())

	// Server defaults
	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultBodyLimit, cfg.Server.BodyLimit)

	// MongoDB defaults
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "statuswatch", cfg.MongoDB.Database)
	assert.Equal(t, uint64(config.DefaultMongoDBMaxPoolSize), cfg.MongoDB.MaxPoolSize)

	// Keycloak defaults
	assert.Equal(t, "tenant_id", cfg.Keycloak.JWT.TenantClaim)
	assert.Equal(t, config.DefaultJWTLeeway, cfg.Keycloak.JWT.Leeway)

	// Scheduler defaults
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.ScanInterval)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.RequestTimeout)
	assert.Equal(t, 2, cfg.Scheduler.FailureThreshold)
	assert.Equal(t, 1, cfg.Scheduler.RecoveryThreshold)
	assert.Equal(t, config.DefaultSyncSchedule, cfg.Scheduler.SyncSchedule)

	// EventBus and log defaults
	assert.Equal(t, "redis", cfg.EventBus.Type)
	assert.True(t, cfg.UsesRedisBus())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		expected string
	}{
		{"default address", "0.0.0.0", 8080, "0.0.0.0:8080"},
		{"localhost", "localhost", 3000, "localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.ServerConfig{Host: tt.host, Port: tt.port}
			assert.Equal(t, tt.expected, cfg.Address())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
		wantMsg string
	}{
		{
			name:    "invalid port",
			modify:  func(c *config.Config) { c.Server.Port = 70000 },
			wantMsg: "server.port",
		},
		{
			name:    "missing mongodb uri",
			modify:  func(c *config.Config) { c.MongoDB.URI = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "missing keycloak realm",
			modify:  func(c *config.Config) { c.Keycloak.Realm = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "missing configstore url",
			modify:  func(c *config.Config) { c.ConfigStore.BaseURL = "" },
			wantErr: config.ErrMissingRequired,
		},
		{
			name:    "zero failure threshold",
			modify:  func(c *config.Config) { c.Scheduler.FailureThreshold = 0 },
			wantMsg: "thresholds",
		},
		{
			name:    "zero poll interval",
			modify:  func(c *config.Config) { c.Scheduler.PollInterval = 0 },
			wantMsg: "scheduler.poll_interval",
		},
		{
			name:    "bad cron",
			modify:  func(c *config.Config) { c.Scheduler.SyncSchedule = "hourly" },
			wantErr: config.ErrInvalidSchedule,
		},
		{
			name:    "bad log level",
			modify:  func(c *config.Config) { c.Log.Level = "verbose" },
			wantErr: config.ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			modify:  func(c *config.Config) { c.Log.Format = "xml" },
			wantErr: config.ErrInvalidLogFormat,
		},
		{
			name:    "bad event bus",
			modify:  func(c *config.Config) { c.EventBus.Type = "kafka" },
			wantErr: config.ErrInvalidEventBusType,
		},
		{
			name:    "bad app mode",
			modify:  func(c *config.Config) { c.App.Mode = "fake" },
			wantErr: config.ErrInvalidAppMode,
		},
		{
			name: "mock mode in production",
			modify: func(c *config.Config) {
				c.App.Mode = config.AppModeMock
				c.App.Environment = config.EnvProduction
			},
			wantErr: config.ErrMockModeInProd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrConfigInvalid)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestConfig_Validate_JoinsErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "verbose"
	cfg.EventBus.Type = "kafka"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
	assert.ErrorIs(t, err, config.ErrInvalidEventBusType)
}

func TestConfig_Validate_MockModeSkipsInfrastructure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.App.Mode = config.AppModeMock
	cfg.MongoDB.URI = ""
	cfg.Keycloak.URL = ""
	cfg.ConfigStore.BaseURL = ""

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.UsesRedisBus())

	cfg.Mock.TenantID = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRequired)
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, cfg.IsDevelopment())

	cfg.Log.Level = "DEBUG"
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromPath_ValidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
app:
  mode: real
  environment: production

server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 45s
  body_limit: 512K

mongodb:
  uri: "mongodb://testhost:27017"
  database: "testdb"

keycloak:
  url: "https://sso.example.com"
  realm: "ops"
  client_id: "statuswatch"
  jwt:
    tenant_claim: "org_id"

configstore:
  base_url: "https://config.example.com"
  namespace: "status"
  service: "apps"
  timeout: 3s

scheduler:
  scan_interval: 15s
  poll_interval: 20s
  failure_threshold: 3
  recovery_threshold: 2
  sync_schedule: "@every 30m"

eventbus:
  type: "redis"
  redis_channel_prefix: "test:"

log:
  level: "debug"
  format: "text"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := config.LoadFromPath(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "512K", cfg.Server.BodyLimit)
	assert.Equal(t, "testdb", cfg.MongoDB.Database)
	assert.Equal(t, "org_id", cfg.Keycloak.JWT.TenantClaim)
	assert.Equal(t, "tenant_name", cfg.Keycloak.JWT.TenantNameClaim)
	assert.Equal(t, "apps", cfg.ConfigStore.Service)
	assert.Equal(t, 3*time.Second, cfg.ConfigStore.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.ScanInterval)
	assert.Equal(t, 3, cfg.Scheduler.FailureThreshold)
	assert.Equal(t, 2, cfg.Scheduler.RecoveryThreshold)
	assert.Equal(t, "@every 30m", cfg.Scheduler.SyncSchedule)
	// не указано в файле: остается значение по умолчанию
	assert.Equal(t, config.DefaultRequestTimeout, cfg.Scheduler.RequestTimeout)
	assert.Equal(t, "test:", cfg.EventBus.RedisChannelPrefix)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromPath_NonExistent(t *testing.T) {
	cfg, err := config.LoadFromPath("/non/existent/path/config.yaml")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, config.ErrConfigNotFound))
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidContent := `
scheduler:
  failure_threshold: lots
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0o644))

	cfg, err := config.LoadFromPath(configPath)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "3333")
	t.Setenv("MONGODB_URI", "mongodb://env-mongo:27017")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_POLL_INTERVAL", "2m30s")
	t.Setenv("SCHEDULER_FAILURE_THRESHOLD", "5")
	t.Setenv("KEYCLOAK_JWT_TENANT_CLAIM", "org")
	t.Setenv("LOG_LEVEL", "warn")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	minimalConfig := `
server:
  port: 8080
scheduler:
  failure_threshold: 3
`
	require.NoError(t, os.WriteFile(configPath, []byte(minimalConfig), 0o644))

	cfg, err := config.LoadFromPath(configPath)
	require.NoError(t, err)

	// env перекрывает файл
	assert.Equal(t, 3333, cfg.Server.Port)
	assert.Equal(t, "mongodb://env-mongo:27017", cfg.MongoDB.URI)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 2*time.Minute+30*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 5, cfg.Scheduler.FailureThreshold)
	assert.Equal(t, "org", cfg.Keycloak.JWT.TenantClaim)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_LoadFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SCHEDULER_SCAN_INTERVAL", "not-a-duration")

	cfg, err := config.NewLoader().WithConfigPaths(nil).Load("")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, config.ErrInvalidDuration)
}

func TestLoader_LoadFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "sometimes")

	cfg, err := config.NewLoader().WithConfigPaths(nil).Load("")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid boolean value")
}

func TestLoader_ConfigPathEnvVar(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom-config.yaml")
	configContent := `
app:
  mode: mock
server:
  port: 7777
mock:
  tenant_id: "demo"
  tenant_name: "Demo Corp"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))
	t.Setenv("CONFIG_PATH", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsMockMode())
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "Demo Corp", cfg.Mock.TenantName)
}

func TestLoader_WithConfigPaths(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "found.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 6060\n"), 0o644))

	cfg, err := config.NewLoader().
		WithConfigPaths([]string{filepath.Join(dir, "missing.yaml"), configPath}).
		Load("")
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}
