// Package session drives one track end-to-end through a source→sink copy
// loop, honoring a pause gate and a cancellation signal kept as two
// separate primitives per the supervisor's coroutine control-flow design.
package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/playerd/internal/audiosink"
	"github.com/llehouerou/playerd/internal/audiosource"
	"github.com/llehouerou/playerd/internal/errmsg"
	"github.com/llehouerou/playerd/internal/track"
)

// DefaultReadBufferSize is the buffer size used for each source read in the
// copy loop.
const DefaultReadBufferSize = 32 * 1024

// Session drives one track from an audiosource.Source to an audiosink.Sink.
// It is owned exclusively by the supervisor that created it; it holds no
// back-reference to its owner and reports its outcome only through its
// Start return value.
type Session struct {
	Track     track.Track
	StartedAt time.Time

	source    audiosource.Source
	sink      audiosink.Sink
	pauseGate *PauseGate
	bufSize   int
}

// New creates a Session for t. pauseGate is created fresh per session by
// the caller; cancellation is carried by the ctx passed to Start.
func New(t track.Track, source audiosource.Source, sink audiosink.Sink, pauseGate *PauseGate) *Session {
	return &Session{
		Track:     t,
		StartedAt: time.Now(),
		source:    source,
		sink:      sink,
		pauseGate: pauseGate,
		bufSize:   DefaultReadBufferSize,
	}
}

// Start opens the source, copies PCM to the sink until EOF, error, or
// cancellation, and returns the terminal result. It never panics or
// returns an error directly: every failure mode is folded into the
// returned track.EndResult so the caller can always post it as a
// SessionEnded command.
func (s *Session) Start(ctx context.Context) track.EndResult {
	reader, err := s.source.OpenReader(ctx, s.Track)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return track.EndResult{Reason: track.EndCancelled}
		}
		return track.EndResult{Reason: track.EndFailed, Details: errmsg.Format(errmsg.OpSourceOpen, err)}
	}
	defer reader.Close() //nolint:errcheck // best-effort cleanup on every exit path

	buf := make([]byte, s.bufSize)
	for {
		if err := s.pauseGate.Wait(ctx); err != nil {
			return track.EndResult{Reason: track.EndCancelled}
		}

		n, readErr := reader.Read(ctx, buf)
		if n > 0 {
			if writeErr := s.sink.Write(ctx, buf[:n]); writeErr != nil {
				if ctx.Err() != nil {
					return track.EndResult{Reason: track.EndCancelled}
				}
				return track.EndResult{Reason: track.EndFailed, Details: errmsg.Format(errmsg.OpSinkWrite, writeErr)}
			}
		}

		if ctx.Err() != nil {
			return track.EndResult{Reason: track.EndCancelled}
		}

		switch {
		case readErr == io.EOF:
			if completeErr := s.sink.Complete(ctx); completeErr != nil {
				return track.EndResult{Reason: track.EndFailed, Details: errmsg.Format(errmsg.OpSinkComplete, completeErr)}
			}
			return track.EndResult{Reason: track.EndCompleted}
		case readErr != nil:
			if ctx.Err() != nil {
				return track.EndResult{Reason: track.EndCancelled}
			}
			return track.EndResult{Reason: track.EndFailed, Details: errmsg.Format(errmsg.OpSourceDecode, readErr)}
		}
	}
}
