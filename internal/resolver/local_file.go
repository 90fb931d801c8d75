package resolver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/llehouerou/playerd/internal/track"
)

// LocalFileResolver resolves requests that name a path on the local
// filesystem, bypassing the remote fetch/cache pipeline entirely.
// Supplemented from the original program, which plays local paths
// directly rather than routing them through the remote resolver.
type LocalFileResolver struct{}

// NewLocalFileResolver builds a LocalFileResolver.
func NewLocalFileResolver() *LocalFileResolver {
	return &LocalFileResolver{}
}

// Name implements Resolver.
func (r *LocalFileResolver) Name() string { return "local-file" }

// CanResolve reports true if the hint says LocalFile, or the raw string
// names a file that exists on disk.
func (r *LocalFileResolver) CanResolve(req track.TrackRequest) bool {
	if req.InputHint == track.InputKindLocalFile {
		return true
	}
	info, err := os.Stat(req.Raw)
	return err == nil && !info.IsDir()
}

// Resolve returns a single Track pointing at req.Raw.
func (r *LocalFileResolver) Resolve(_ context.Context, req track.TrackRequest) ([]track.Track, error) {
	if _, err := os.Stat(req.Raw); err != nil {
		return nil, err
	}
	return []track.Track{{
		URI:       req.Raw,
		Title:     filepath.Base(req.Raw),
		InputKind: track.InputKindLocalFile,
	}}, nil
}
