package prerouter

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/core"
)

// mapCache is a simple cache.Cache implementation for tests. TTLs are
// honored on Get so block expiry can be asserted without ristretto's
// asynchronous admission.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]mapCacheEntry
}

type mapCacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]mapCacheEntry)}
}

func (c *mapCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *mapCache) Set(key string, value interface{}, cost int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = mapCacheEntry{value: value}
	return true
}

func (c *mapCache) SetWithTTL(key string, value interface{}, cost int64, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = mapCacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return true
}

func newTestApp(cfg *config.Config) *core.App {
	app, err := core.NewApp(
		core.WithConfigProvider(config.NewProvider(cfg)),
		core.WithCache(newMapCache()),
		core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		panic(err)
	}
	return app
}
