package analysis

import (
	"sync"
	"time"

	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// ResultCache holds finalized analyses keyed by request fingerprint. It is
// the only state shared between requests, so every access goes through the
// mutex. Entries are stored and returned as deep copies: a caller can never
// hold a mutable alias into the cache.
//
// With ttl zero the cache grows without bound for the life of the process.
// That matches the product's single-session behavior and is deliberate; a
// TTL plus cleanup interval can be configured for long-running deployments.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]resultEntry
	ttl   time.Duration
	stats cacheStats
	done  chan struct{}
}

type resultEntry struct {
	value     *common.MealAnalysis
	createdAt time.Time
}

type cacheStats struct {
	hits   int64
	misses int64
}

// NewResultCache creates the analysis result cache. Returns nil when the
// cache is disabled; the service treats a nil cache as a permanent miss.
func NewResultCache(cfg *config.CacheConfig) *ResultCache {
	if !cfg.Enabled {
		common.LogInfo("analysis cache disabled")
		return nil
	}

	c := &ResultCache{
		store: make(map[string]resultEntry),
		ttl:   cfg.TTL,
		done:  make(chan struct{}),
	}

	if cfg.TTL > 0 && cfg.CleanupInterval > 0 {
		go c.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("analysis cache initialized",
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	return c
}

// Lookup returns a deep copy of the cached analysis for the fingerprint
func (c *ResultCache) Lookup(fingerprint string) (*common.MealAnalysis, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	entry, exists := c.store[fingerprint]
	c.mu.RUnlock()

	if !exists || (c.ttl > 0 && time.Since(entry.createdAt) > c.ttl) {
		c.mu.Lock()
		if exists {
			delete(c.store, fingerprint)
		}
		c.stats.misses++
		c.mu.Unlock()
		common.LogCacheMiss("analysis", fingerprint)
		return nil, false
	}

	c.mu.Lock()
	c.stats.hits++
	c.mu.Unlock()
	common.LogCacheHit("analysis", fingerprint)

	return entry.value.Clone(), true
}

// Store saves a deep copy of the analysis under the fingerprint
func (c *ResultCache) Store(fingerprint string, analysis *common.MealAnalysis) {
	if c == nil || analysis == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[fingerprint] = resultEntry{
		value:     analysis.Clone(),
		createdAt: time.Now(),
	}
}

// Len returns the number of cached analyses
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stats returns hit/miss counters and current size
func (c *ResultCache) Stats() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{"enabled": false}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"enabled": true,
		"size":    len(c.store),
		"hits":    c.stats.hits,
		"misses":  c.stats.misses,
	}
}

func (c *ResultCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	now := time.Now()
	count := 0

	c.mu.Lock()
	for key, entry := range c.store {
		if now.Sub(entry.createdAt) > c.ttl {
			delete(c.store, key)
			count++
		}
	}
	remaining := len(c.store)
	c.mu.Unlock()

	if count > 0 {
		common.LogInfo("cleaned up expired analyses",
			zap.Int("count", count),
			zap.Int("remaining", remaining),
		)
	}
}

// Close stops the cleanup goroutine and drops all entries
func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}

	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]resultEntry)

	common.LogInfo("analysis cache closed",
		zap.Int64("hits", c.stats.hits),
		zap.Int64("misses", c.stats.misses),
	)
	return nil
}
