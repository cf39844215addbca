package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisStartupTimeout = 60 * time.Second
	redisCleanupTimeout = 10 * time.Second
	redisMemoryLimit    = 128 << 20
)

var redisContainer = &sharedContainer{
	port: "6379/tcp",
	request: testcontainers.ContainerRequest{
		Image:              "redis:7-alpine",
		ExposedPorts:       []string{"6379/tcp"},
		HostConfigModifier: limitMemory(redisMemoryLimit),
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(redisStartupTimeout),
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(redisStartupTimeout),
		),
	},
}

// SetupTestRedis connects to the shared Redis container; the database is
// flushed on cleanup. Skipped under -short.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	requireDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), redisStartupTimeout)
	defer cancel()

	addr, err := redisContainer.address(ctx)
	require.NoError(t, err, "shared redis container")

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err(), "ping redis")

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), redisCleanupTimeout)
		defer cleanupCancel()
		_ = client.FlushDB(cleanupCtx).Err()
		_ = client.Close()
	})
	return client
}
