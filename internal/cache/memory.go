package cache

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/playerd/internal/track"
)

type memoryEntry struct {
	tracks    []track.Track
	expiresAt time.Time
}

// MemoryCache is a process-local cache backed by a sync.Map. It has no
// eviction beyond lazy expiry-on-read, which is the only behavior this
// engine needs from an in-memory backend.
type MemoryCache struct {
	entries sync.Map // string -> memoryEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// TryGet implements Cache.
func (c *MemoryCache) TryGet(_ context.Context, key string) ([]track.Track, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Delete(key)
		return nil, false
	}
	return entry.tracks, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, tracks []track.Track, ttl time.Duration) {
	c.entries.Store(key, memoryEntry{tracks: tracks, expiresAt: time.Now().Add(ttl)})
}

// Close implements Cache. MemoryCache holds no releasable resources.
func (c *MemoryCache) Close() error { return nil }
