package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
)

// MongoChecker pings MongoDB.
type MongoChecker struct {
	client *mongo.Client
}

// NewMongoChecker creates a MongoDB health checker
func NewMongoChecker(client *mongo.Client) *MongoChecker {
	return &MongoChecker{client: client}
}

// Name returns the name of this health checker.
func (c *MongoChecker) Name() string { return "mongodb" }

// Check performs the health check.
func (c *MongoChecker) Check(ctx context.Context) appcore.HealthStatus {
	start := time.Now()
	if err := c.client.Ping(ctx, nil); err != nil {
		return unhealthy(fmt.Sprintf("ping failed: %v", err))
	}
	return healthy("connected", map[string]any{"latency": time.Since(start).String()})
}

// RedisChecker pings Redis.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a Redis health checker
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns the name of this health checker.
func (c *RedisChecker) Name() string { return "redis" }

// Check performs the health check.
func (c *RedisChecker) Check(ctx context.Context) appcore.HealthStatus {
	start := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unhealthy(fmt.Sprintf("ping failed: %v", err))
	}
	return healthy("connected", map[string]any{"latency": time.Since(start).String()})
}

// FuncChecker adapts a function, e.g. the scheduler liveness.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) error
}

// NewFuncChecker creates a checker from a function
func NewFuncChecker(name string, check func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, check: check}
}

// Name returns the name of this health checker.
func (c *FuncChecker) Name() string { return c.name }

// Check performs the health check.
func (c *FuncChecker) Check(ctx context.Context) appcore.HealthStatus {
	if err := c.check(ctx); err != nil {
		return unhealthy(err.Error())
	}
	return healthy("ok", nil)
}

func healthy(message string, details map[string]any) appcore.HealthStatus {
	return appcore.HealthStatus{Healthy: true, Message: message, Details: details, CheckedAt: time.Now()}
}

func unhealthy(message string) appcore.HealthStatus {
	return appcore.HealthStatus{Healthy: false, Message: message, CheckedAt: time.Now()}
}
