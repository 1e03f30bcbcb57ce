package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client. Connections are opened lazily;
// call PingRedis to verify the server is reachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// PingRedis checks the connection, retrying network failures with backoff.
func PingRedis(ctx context.Context, client redis.UniversalClient, logger *slog.Logger) error {
	err := withRetry(ctx, logger, "redis ping", isConnectionError, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
