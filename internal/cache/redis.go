package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/llehouerou/playerd/internal/track"
	"github.com/rs/zerolog/log"
)

// RedisCache stores the request cache in a Redis-compatible store via a
// connection pool, using SET with EX for TTL expiry.
type RedisCache struct {
	pool *redis.Pool
}

// NewRedisCache creates a RedisCache dialing addr lazily through a
// connection pool.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		pool: &redis.Pool{
			MaxIdle:     4,
			IdleTimeout: 240 * time.Second,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr)
			},
		},
	}
}

// TryGet implements Cache.
func (c *RedisCache) TryGet(_ context.Context, key string) ([]track.Track, bool) {
	conn := c.pool.Get()
	defer conn.Close() //nolint:errcheck // best-effort cleanup

	raw, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if err != redis.ErrNil {
			log.Warn().Err(err).Str("key", key).Msg("redis cache lookup failed")
		}
		return nil, false
	}

	var tracks []track.Track
	if err := json.Unmarshal(raw, &tracks); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache entry corrupt")
		return nil, false
	}
	return tracks, true
}

// Set implements Cache. Marshal or connection failures are swallowed.
func (c *RedisCache) Set(_ context.Context, key string, tracks []track.Track, ttl time.Duration) {
	payload, err := json.Marshal(tracks)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache marshal failed")
		return
	}

	conn := c.pool.Get()
	defer conn.Close() //nolint:errcheck // best-effort cleanup

	if _, err := conn.Do("SET", key, payload, "EX", int(ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache write failed")
	}
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	return c.pool.Close()
}
