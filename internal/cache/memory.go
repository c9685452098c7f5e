package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yatis-tahmin-server/internal/domain"
)

// MemoryCache is an in-process expirable LRU prediction cache.
type MemoryCache struct {
	lru *expirable.LRU[string, *domain.PredictionResult]
}

// NewMemoryCache creates a memory cache holding at most maxItems entries,
// each expiring after ttl. A ttl of zero disables expiry.
func NewMemoryCache(maxItems int, ttl time.Duration) (*MemoryCache, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("memory cache size must be positive, got %d", maxItems)
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.PredictionResult](maxItems, nil, ttl),
	}, nil
}

// Get returns the cached result for key, if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.PredictionResult, bool) {
	return c.lru.Get(key)
}

// Set stores the result under key.
func (c *MemoryCache) Set(_ context.Context, key string, result *domain.PredictionResult) {
	c.lru.Add(key, result)
}
