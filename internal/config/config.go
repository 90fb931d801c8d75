// Package config loads the playback engine's configuration from a TOML
// file via koanf, following the same search-path precedence the teacher
// project uses for its own config: a per-user config directory first,
// then a config.toml in the current directory, last one wins.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level configuration for the playback engine and its
// collaborators.
type Config struct {
	Decoder  DecoderConfig  `koanf:"decoder"`
	Fetcher  FetcherConfig  `koanf:"fetcher"`
	Resolver ResolverConfig `koanf:"resolver"`
	Cache    CacheConfig    `koanf:"cache"`
	Playback PlaybackConfig `koanf:"playback"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DecoderConfig configures the child process that decodes container/URL
// bytes into raw PCM.
type DecoderConfig struct {
	Path         string `koanf:"path"`
	HideBanner   bool   `koanf:"hide_banner"`
	LogLevel     string `koanf:"log_level"`
	SampleFormat string `koanf:"sample_format"`
	Channels     int    `koanf:"channels"`
	SampleRate   int    `koanf:"sample_rate"`
}

// FetcherConfig configures the child process that resolves a URL/ID to
// container bytes or to JSON metadata.
type FetcherConfig struct {
	Path               string `koanf:"path"`
	UseCookies         bool   `koanf:"use_cookies"`
	CookiesFromBrowser string `koanf:"cookies_from_browser"`
	CookiesFile        string `koanf:"cookies_file"`
}

// ResolverConfig configures the track resolver.
type ResolverConfig struct {
	CacheTTLSeconds int64 `koanf:"cache_ttl_seconds"`
}

// CacheTTL returns the configured cache TTL as a time.Duration.
func (r ResolverConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// CacheBackend names a supported request-cache backend.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRemote CacheBackend = "remote"
	CacheBackendSQLite CacheBackend = "sqlite"
)

// CacheConfig configures the request cache backend.
type CacheConfig struct {
	Backend CacheBackend `koanf:"backend"`
	// DSN is backend-specific: a file path for sqlite, a host:port for
	// remote (redis-compatible).
	DSN string `koanf:"dsn"`
}

// PlaybackConfig configures the playback loop supervisor.
type PlaybackConfig struct {
	QueueCapacity int `koanf:"queue_capacity"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// defaults returns a Config with every field set to the documented
// default.
func defaults() *Config {
	return &Config{
		Decoder: DecoderConfig{
			Path:         "ffmpeg",
			SampleFormat: "s16le",
			Channels:     2,
			SampleRate:   48000,
		},
		Fetcher: FetcherConfig{
			Path: "yt-dlp",
		},
		Resolver: ResolverConfig{
			CacheTTLSeconds: 24 * 60 * 60,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
		},
		Playback: PlaybackConfig{
			QueueCapacity: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the standard search paths, applying
// defaults for anything unset. A missing config file at every path is not
// an error; Load simply returns the defaults.
func Load(appName string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range searchPaths(appName) {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Playback.QueueCapacity <= 0 {
		cfg.Playback.QueueCapacity = 256
	}

	return cfg, nil
}

func searchPaths(appName string) []string {
	paths := []string{}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	paths = append(paths, "config.toml")
	return paths
}
