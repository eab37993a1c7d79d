package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// FingerprintCache maps a video fingerprint to its computed analysis result.
// It guarantees that re-submitting the same nominal video yields the
// previously computed output. Concurrent Puts for the same fingerprint are
// value-identical, so recompute-and-overwrite races are harmless.
type FingerprintCache interface {
	Get(ctx context.Context, fingerprint string) (*models.AnalysisResult, bool, error)
	Put(ctx context.Context, fingerprint string, result *models.AnalysisResult) error
}

// MemoryFingerprintCache is the process-lifetime in-memory implementation:
// no persistence, no TTL, no eviction. A hit returns the identical stored
// object, not a recomputation.
type MemoryFingerprintCache struct {
	mu      sync.RWMutex
	entries map[string]*models.AnalysisResult
}

// NewMemoryFingerprintCache creates an empty in-memory cache.
func NewMemoryFingerprintCache() *MemoryFingerprintCache {
	return &MemoryFingerprintCache{entries: make(map[string]*models.AnalysisResult)}
}

func (c *MemoryFingerprintCache) Get(_ context.Context, fingerprint string) (*models.AnalysisResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[fingerprint]
	return res, ok, nil
}

func (c *MemoryFingerprintCache) Put(_ context.Context, fingerprint string, result *models.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = result
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryFingerprintCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisFingerprintCache stores analysis results in Redis as JSON. It is the
// bounded/external alternative to the in-memory cache: entries survive
// restarts and can carry a TTL.
type RedisFingerprintCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewRedisFingerprintCache creates a Redis-backed fingerprint cache. A zero
// ttl keeps entries indefinitely.
func NewRedisFingerprintCache(redis *RedisClient, ttl time.Duration) *RedisFingerprintCache {
	return &RedisFingerprintCache{redis: redis, ttl: ttl}
}

func (c *RedisFingerprintCache) key(fingerprint string) string {
	return fmt.Sprintf("analysis:fp:%s", fingerprint)
}

func (c *RedisFingerprintCache) Get(ctx context.Context, fingerprint string) (*models.AnalysisResult, bool, error) {
	raw, err := c.redis.Get(ctx, c.key(fingerprint))
	if err != nil {
		if IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}
	return &result, true, nil
}

func (c *RedisFingerprintCache) Put(ctx context.Context, fingerprint string, result *models.AnalysisResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	return c.redis.Set(ctx, c.key(fingerprint), string(raw), c.ttl)
}
