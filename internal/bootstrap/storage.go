package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/statuswatch/internal/config"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	mongodbinfra "github.com/lllypuk/statuswatch/internal/infrastructure/mongodb"
	"github.com/lllypuk/statuswatch/internal/infrastructure/repository/mongodb"
)

const (
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// Storage is the MongoDB client together with the repositories built on it.
type Storage struct {
	Client       *mongo.Client
	Applications status.Repository
	History      status.HistoryStore
}

// OpenStorage connects to MongoDB, verifies the connection and ensures indexes.
// The client is disconnected again when any step fails.
func OpenStorage(ctx context.Context, cfg config.MongoDBConfig, logger *slog.Logger) (*Storage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(cfg.MaxPoolSize))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	db := client.Database(cfg.Database)
	if err = client.Ping(initCtx, nil); err != nil {
		err = fmt.Errorf("failed to ping mongodb: %w", err)
	} else if err = mongodbinfra.CreateAllIndexes(initCtx, db); err != nil {
		err = fmt.Errorf("failed to create indexes: %w", err)
	}
	if err != nil {
		return nil, errors.Join(err, disconnect(client))
	}

	logger.InfoContext(ctx, "connected to MongoDB", slog.String("database", cfg.Database))

	return &Storage{
		Client:       client,
		Applications: mongodb.NewMongoApplicationRepository(db.Collection(mongodbinfra.CollectionApplications)),
		History:      mongodb.NewMongoHistoryRepository(db.Collection(mongodbinfra.CollectionEndpointEntries)),
	}, nil
}

// Close disconnects the client.
func (s *Storage) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return disconnect(s.Client)
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// OpenRedis creates the Redis client and pings it.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping redis: %w", err), client.Close())
	}

	logger.InfoContext(ctx, "connected to Redis", slog.String("addr", cfg.Addr))
	return client, nil
}
