// Package cache keeps an in-memory mirror of canonical path -> last
// storage-confirmed entry snapshot, so repeated lookups skip the storage
// round trip. The cache is advisory: storage stays the source of truth and
// the whole mapping can be rebuilt from a full scan.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/webdeskos/vfsd/internal/fspath"
	"github.com/webdeskos/vfsd/internal/models"
	"github.com/webdeskos/vfsd/internal/storage"
)

// PathCache maps folded canonical paths to entry snapshots.
type PathCache struct {
	engine storage.Engine

	mu      sync.RWMutex
	entries map[string]*models.Entry
	hits    uint64
	misses  uint64
}

// New returns an empty cache backed by engine.
func New(engine storage.Engine) *PathCache {
	return &PathCache{
		engine:  engine,
		entries: make(map[string]*models.Entry),
	}
}

// Get returns the cached snapshot for path, falling back to storage and
// populating on a hit there. A (nil, nil) result means the path does not
// exist.
func (c *PathCache) Get(ctx context.Context, path string) (*models.Entry, error) {
	key := fspath.Key(path)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.Clone(), nil
	}

	entry, err := c.engine.GetEntryByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	if entry != nil {
		c.entries[key] = entry.Clone()
	}
	c.mu.Unlock()

	return entry, nil
}

// Put overwrites the snapshot for path.
func (c *PathCache) Put(path string, entry *models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fspath.Key(path)] = entry.Clone()
}

// Touch updates only the accessed timestamp of the cached snapshot for
// path, when one is present. Everything else in the snapshot stays as
// last confirmed by storage.
func (c *PathCache) Touch(path string, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[fspath.Key(path)]; ok {
		entry.Accessed = ts
	}
}

// Invalidate drops the snapshot for path.
func (c *PathCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fspath.Key(path))
}

// InvalidatePrefix drops the snapshots for path and everything beneath it.
// Used when a subtree's paths are rewritten by a directory move.
func (c *PathCache) InvalidatePrefix(path string) {
	prefix := fspath.Key(path)
	subtree := prefix
	if !strings.HasSuffix(subtree, fspath.Separator) {
		subtree += fspath.Separator
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, subtree) {
			delete(c.entries, key)
		}
	}
}

// Build repopulates the cache from a full storage scan, replacing whatever
// was cached before.
func (c *PathCache) Build(ctx context.Context) error {
	all, err := c.engine.GetAllEntries(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]*models.Entry, len(all))
	for _, entry := range all {
		entries[fspath.Key(entry.Path)] = entry
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached snapshots.
func (c *PathCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *PathCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
