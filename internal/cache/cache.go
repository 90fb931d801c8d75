// Package cache implements the playback engine's best-effort request
// cache: an opaque string key maps to a TTL-bounded list of tracks.
// Every implementation swallows and logs its own failures; a cache miss
// or error looks identical to callers.
package cache

import (
	"context"
	"time"

	"github.com/llehouerou/playerd/internal/track"
)

// Cache is the engine's key→track-list contract. Implementations may be
// in-memory, disk-backed, or remote; none are required to be durable.
type Cache interface {
	// TryGet returns the cached tracks for key, or ok=false on a miss or
	// any backend error.
	TryGet(ctx context.Context, key string) (tracks []track.Track, ok bool)
	// Set stores tracks under key for ttl. Failures are swallowed.
	Set(ctx context.Context, key string, tracks []track.Track, ttl time.Duration)
	// Close releases backend resources.
	Close() error
}
