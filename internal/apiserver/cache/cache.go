package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON encoded values with a TTL
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it was found
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// New builds the configured cache backend
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
		return NewRedisCache(client, cfg.Redis.Prefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
