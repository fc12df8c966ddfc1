package reconcile

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc loads a catalog from disk.
type LoadFunc func(path string) (Source, error)

// cachedSource holds a loaded catalog along with the file stamp it was built from.
type cachedSource struct {
	source Source
	stamp  string
	built  time.Time
}

// CatalogCache memoizes loaded catalogs for long-lived processes (the HTTP server).
// Entries are keyed by path and invalidated when the file's size or mtime changes,
// or when TTL elapses. Concurrent loads of the same file are collapsed with singleflight.
//
// Only read-only sources may be cached: a catalog that will be mutated must be loaded
// fresh with Load.
type CatalogCache struct {
	load LoadFunc
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]*cachedSource
	sf      singleflight.Group
}

// NewCatalogCache creates a cache around load. A zero ttl disables caching
// but still deduplicates concurrent loads.
func NewCatalogCache(load LoadFunc, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		load:    load,
		ttl:     ttl,
		entries: make(map[string]*cachedSource),
	}
}

// Get returns the cached source for path, loading it if missing or stale.
func (c *CatalogCache) Get(ctx context.Context, path string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stamp, err := fileStamp(path)
	if err != nil {
		return nil, err
	}

	// Fast path: check if entry exists and is fresh
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && c.fresh(entry, stamp) {
		return entry.source, nil
	}

	// Slow path: load using singleflight to prevent stampedes
	result, err, _ := c.sf.Do(path+"|"+stamp, func() (interface{}, error) {
		c.mu.RLock()
		entry, ok := c.entries[path]
		c.mu.RUnlock()
		if ok && c.fresh(entry, stamp) {
			return entry.source, nil
		}

		source, err := c.load(path)
		if err != nil {
			return nil, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[path] = &cachedSource{source: source, stamp: stamp, built: time.Now()}
			c.mu.Unlock()
		}

		return source, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(Source), nil
}

// Invalidate drops the cached entry for path.
func (c *CatalogCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

func (c *CatalogCache) fresh(entry *cachedSource, stamp string) bool {
	if c.ttl == 0 {
		return false
	}
	return entry.stamp == stamp && time.Since(entry.built) <= c.ttl
}

func fileStamp(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat catalog %s: %w", path, err)
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}
