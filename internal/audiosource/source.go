// Package audiosource implements the playback engine's pluggable audio
// source: an interface producing raw PCM (48kHz/16-bit signed
// little-endian/stereo) from either a local file or a remote two-process
// fetch+decode pipeline, plus the background pump (Pump) that links the
// latter's child processes.
package audiosource

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/playerd/internal/track"
)

// Reader yields raw PCM bytes for one track.
type Reader interface {
	// Read fills buf and returns the number of bytes read. io.EOF (or any
	// error) ends the stream; a clean end-of-track is io.EOF.
	Read(ctx context.Context, buf []byte) (int, error)
	// Close releases the reader's resources. Safe to call more than once.
	Close() error
}

// Source opens a Reader for a track.
type Source interface {
	OpenReader(ctx context.Context, t track.Track) (Reader, error)
}

// FileNotFoundError is returned by LocalFileSource when the track's path
// does not exist, so sessions can fail fast without spawning a decoder.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("audiosource: file not found: %s", e.Path)
}

// PipelineFailedError is returned when a child process in the decode
// pipeline exits non-zero, surfacing which child and with what exit code.
type PipelineFailedError struct {
	Child    string // "fetcher" or "decoder"
	ExitCode int
	Stderr   string
}

func (e *PipelineFailedError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("audiosource: %s exited %d: %s", e.Child, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("audiosource: %s exited %d", e.Child, e.ExitCode)
}

// RoutingSource composes concrete sources and delegates to the one
// matching a track's InputKind. It mirrors resolver.RoutingResolver:
// a plain composite over a discriminator-to-delegate mapping.
type RoutingSource struct {
	local  Source
	remote Source
}

// NewRoutingSource creates a RoutingSource dispatching LocalFile tracks to
// local and everything else to remote.
func NewRoutingSource(local, remote Source) *RoutingSource {
	return &RoutingSource{local: local, remote: remote}
}

// OpenReader implements Source.
func (r *RoutingSource) OpenReader(ctx context.Context, t track.Track) (Reader, error) {
	switch t.InputKind {
	case track.InputKindLocalFile:
		if r.local == nil {
			return nil, errors.New("audiosource: no local source configured")
		}
		return r.local.OpenReader(ctx, t)
	default:
		if r.remote == nil {
			return nil, errors.New("audiosource: no remote source configured")
		}
		return r.remote.OpenReader(ctx, t)
	}
}
