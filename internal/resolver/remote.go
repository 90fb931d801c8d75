package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/llehouerou/playerd/internal/cache"
	"github.com/llehouerou/playerd/internal/sourceutil"
	"github.com/llehouerou/playerd/internal/track"
	"github.com/rs/zerolog/log"
)

// defaultFetchConcurrency bounds how many fetcher child processes this
// resolver runs at once.
const defaultFetchConcurrency = 4

// FetcherOptions configures the child process invoked to resolve
// metadata for a remote request.
type FetcherOptions struct {
	Path               string
	UseCookies         bool
	CookiesFromBrowser string
	CookiesFile        string
}

// RemoteResolver resolves URLs and site IDs by shelling out to a
// fetcher binary in JSON-dump mode, caching the parsed result.
type RemoteResolver struct {
	opts  FetcherOptions
	cache cache.Cache
	ttl   time.Duration
	sem   chan struct{}
}

// NewRemoteResolver builds a RemoteResolver. concurrency <= 0 falls back
// to defaultFetchConcurrency.
func NewRemoteResolver(opts FetcherOptions, c cache.Cache, ttl time.Duration, concurrency int) *RemoteResolver {
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &RemoteResolver{
		opts:  opts,
		cache: c,
		ttl:   ttl,
		sem:   make(chan struct{}, concurrency),
	}
}

// Name implements Resolver.
func (r *RemoteResolver) Name() string { return "remote" }

// CanResolve reports true for URLs, or bare IDs when the caller's hint
// asserts the remote site.
func (r *RemoteResolver) CanResolve(req track.TrackRequest) bool {
	if strings.Contains(req.Raw, "://") {
		return true
	}
	return req.InputHint == track.InputKindRemote
}

// remoteKind classifies a remote request for cache-key construction.
// Site-specific URL parsing is out of scope: this only distinguishes
// "looks like a playlist" from "looks like a single item".
func remoteKind(raw string) string {
	if strings.Contains(raw, "playlist") || strings.Contains(raw, "list=") {
		return "playlist"
	}
	return "video"
}

func cacheKey(kind, raw string) string {
	if kind == "playlist" {
		return sourceutil.FormatID("site", kind, raw, "raw")
	}
	return sourceutil.FormatID("site", kind, raw)
}

// fetchMetadata mirrors the JSON-dump output of the fetcher binary:
// a single item has Title/Duration/URL set and no Entries; a playlist
// has Entries populated instead.
type fetchMetadata struct {
	Title    string          `json:"title"`
	Duration float64         `json:"duration"`
	URL      string          `json:"webpage_url"`
	Entries  []fetchMetadata `json:"entries"`
}

// Resolve implements Resolver.
func (r *RemoteResolver) Resolve(ctx context.Context, req track.TrackRequest) ([]track.Track, error) {
	kind := remoteKind(req.Raw)
	key := cacheKey(kind, req.Raw)

	if r.cache != nil {
		if tracks, ok := r.cache.TryGet(ctx, key); ok {
			return tracks, nil
		}
	}

	meta, err := r.fetch(ctx, req.Raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", req.Raw).Msg("fetcher exited non-zero, returning empty result")
		return []track.Track{}, nil
	}

	tracks := metadataToTracks(meta, req.Raw)

	if r.cache != nil {
		r.cache.Set(ctx, key, tracks, r.ttl)
	}

	return tracks, nil
}

func metadataToTracks(meta fetchMetadata, fallbackURI string) []track.Track {
	if len(meta.Entries) == 0 {
		uri := meta.URL
		if uri == "" {
			uri = fallbackURI
		}
		return []track.Track{{
			URI:          uri,
			Title:        meta.Title,
			InputKind:    track.InputKindRemote,
			DurationHint: durationFromSeconds(meta.Duration),
		}}
	}

	tracks := make([]track.Track, 0, len(meta.Entries))
	for _, entry := range meta.Entries {
		uri := entry.URL
		if uri == "" {
			continue
		}
		tracks = append(tracks, track.Track{
			URI:          uri,
			Title:        entry.Title,
			InputKind:    track.InputKindRemote,
			DurationHint: durationFromSeconds(entry.Duration),
		})
	}
	return tracks
}

func durationFromSeconds(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func (r *RemoteResolver) fetch(ctx context.Context, raw string) (fetchMetadata, error) {
	return r.fetchWithArgs(ctx, r.fetchArgs(raw))
}

// fetchWithArgs runs the fetcher binary with an explicit argument list,
// bounded by the concurrency semaphore. Split out from fetch so tests
// can substitute a stand-in binary without going through fetchArgs.
func (r *RemoteResolver) fetchWithArgs(ctx context.Context, args []string) (fetchMetadata, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return fetchMetadata{}, ctx.Err()
	}
	defer func() { <-r.sem }()

	cmd := exec.CommandContext(ctx, r.opts.Path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fetchMetadata{}, err
	}

	var meta fetchMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return fetchMetadata{}, err
	}
	return meta, nil
}

func (r *RemoteResolver) fetchArgs(raw string) []string {
	var args []string
	if r.opts.UseCookies {
		if r.opts.CookiesFromBrowser != "" {
			args = append(args, "--cookies-from-browser", r.opts.CookiesFromBrowser)
		} else if r.opts.CookiesFile != "" {
			args = append(args, "--cookies", r.opts.CookiesFile)
		}
	}
	args = append(args, "--dump-single-json", "--no-warnings", raw)
	return args
}
