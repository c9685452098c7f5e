package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yatis-tahmin-server/internal/domain"
)

// RedisCache stores prediction results in Redis as JSON values with a TTL.
// Redis errors degrade to cache misses; they never fail a prediction.
type RedisCache struct {
	logger *logrus.Logger
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed prediction cache and verifies the
// connection.
func NewRedisCache(logger *logrus.Logger, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{logger: logger, client: client, ttl: ttl}, nil
}

// Get returns the cached result for key, if present.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PredictionResult, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis get failed")
		return nil, false
	}

	var result domain.PredictionResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		// Corrupted entry, drop it.
		c.client.Del(ctx, key)
		return nil, false
	}
	return &result, true
}

// Set stores the result under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *domain.PredictionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal prediction for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis set failed")
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
