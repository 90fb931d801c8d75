package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/llehouerou/playerd/internal/db"
	"github.com/llehouerou/playerd/internal/track"
	"github.com/rs/zerolog/log"
)

// SQLiteCache persists the request cache in a SQLite table, following the
// same TTL-column pattern the rest of this project's caches use.
type SQLiteCache struct {
	conn *sql.DB
}

// NewSQLiteCache opens (creating if needed) the request_cache table on
// conn and returns a cache backed by it.
func NewSQLiteCache(conn *sql.DB) (*SQLiteCache, error) {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS request_cache (
			key TEXT PRIMARY KEY,
			tracks_json TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}
	return &SQLiteCache{conn: conn}, nil
}

// TryGet implements Cache.
func (c *SQLiteCache) TryGet(ctx context.Context, key string) ([]track.Track, bool) {
	var tracksJSON string
	var expiresAt int64
	err := c.conn.QueryRowContext(ctx,
		`SELECT tracks_json, expires_at FROM request_cache WHERE key = ?`, key,
	).Scan(&tracksJSON, &expiresAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("key", key).Msg("sqlite cache lookup failed")
		}
		return nil, false
	}

	if time.Now().Unix() > expiresAt {
		_, _ = c.conn.ExecContext(ctx, `DELETE FROM request_cache WHERE key = ?`, key)
		return nil, false
	}

	var tracks []track.Track
	if err := json.Unmarshal([]byte(tracksJSON), &tracks); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sqlite cache entry corrupt")
		return nil, false
	}
	return tracks, true
}

// Set implements Cache. Marshal or transaction failures are swallowed;
// the cache is advisory.
func (c *SQLiteCache) Set(_ context.Context, key string, tracks []track.Track, ttl time.Duration) {
	payload, err := json.Marshal(tracks)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sqlite cache marshal failed")
		return
	}
	expiresAt := time.Now().Add(ttl).Unix()

	err = db.WithTx(c.conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO request_cache (key, tracks_json, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET tracks_json = excluded.tracks_json, expires_at = excluded.expires_at`,
			key, payload, expiresAt,
		)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sqlite cache write failed")
	}
}

// Close implements Cache.
func (c *SQLiteCache) Close() error {
	return c.conn.Close()
}
