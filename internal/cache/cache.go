// Package cache provides the prediction result cache. Predictions for a
// given (age group, department, ICD set key) triple are deterministic, so
// caching them only trades memory for model service round trips. Cache
// failures are never surfaced to the request path.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yatis-tahmin-server/internal/domain"
)

// New builds the prediction cache selected by the configuration. Backend
// "off" yields a no-op cache.
func New(logger *logrus.Logger, cfg *domain.CacheConfig) (domain.PredictionCache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryCache(cfg.MaxItems, cfg.TTL)
	case "redis":
		return NewRedisCache(logger, cfg.RedisURL, cfg.TTL)
	case "off", "":
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// Key builds the cache key for a prediction triple.
func Key(ageGroup, department, icdKey string) string {
	return fmt.Sprintf("pred:%s|%s|%s", ageGroup, department, icdKey)
}

// NopCache is a PredictionCache that stores nothing.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(_ context.Context, _ string) (*domain.PredictionResult, bool) {
	return nil, false
}

// Set discards the result.
func (NopCache) Set(_ context.Context, _ string, _ *domain.PredictionResult) {}
