package engine

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/llehouerou/playerd/internal/audiosource"
	"github.com/llehouerou/playerd/internal/track"
)

// blockingReader yields its data immediately, then either hits EOF or
// blocks until ctx is cancelled, depending on block.
type blockingReader struct {
	data  []byte
	pos   int
	block bool
}

func (r *blockingReader) Read(ctx context.Context, buf []byte) (int, error) {
	if r.pos < len(r.data) {
		n := copy(buf, r.data[r.pos:])
		r.pos += n
		return n, nil
	}
	if r.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return 0, io.EOF
}

func (r *blockingReader) Close() error { return nil }

// fakeSource hands out a pre-registered reader keyed by track URI.
type fakeSource struct {
	mu      sync.Mutex
	readers map[string]*blockingReader
}

func newFakeSource() *fakeSource {
	return &fakeSource{readers: make(map[string]*blockingReader)}
}

func (s *fakeSource) register(uri string, r *blockingReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[uri] = r
}

func (s *fakeSource) OpenReader(_ context.Context, t track.Track) (audiosource.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.readers[t.URI]
	if !ok {
		return &blockingReader{}, nil
	}
	return r, nil
}

type fakeSink struct {
	mu      sync.Mutex
	written [][]byte
}

func (s *fakeSink) Write(_ context.Context, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.written = append(s.written, cp)
	return nil
}

func (s *fakeSink) Complete(_ context.Context) error { return nil }
func (s *fakeSink) Close() error                     { return nil }

func TestEngine_BasicPlayToIdle(t *testing.T) {
	src := newFakeSource()
	src.register("t1", &blockingReader{data: []byte("hello")})
	sink := &fakeSink{}

	e := New(src, sink, 0)
	sub := e.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.EnqueueTracks([]track.Track{{URI: "t1"}})

	var sawPlaying, sawIdle bool
	var sawSessionEnded bool
	timeout := time.After(2 * time.Second)
	for !(sawPlaying && sawIdle && sawSessionEnded) {
		select {
		case sc := <-sub.StateChanged:
			if sc.Current == StatePlaying {
				sawPlaying = true
			}
			if sc.Current == StateIdle {
				sawIdle = true
			}
		case se := <-sub.SessionEnded:
			if se.Result.Reason != track.EndCompleted {
				t.Fatalf("SessionEnded reason = %v, want Completed", se.Result.Reason)
			}
			sawSessionEnded = true
		case <-timeout:
			t.Fatalf("timed out: playing=%v idle=%v sessionEnded=%v", sawPlaying, sawIdle, sawSessionEnded)
		}
	}
}

func TestEngine_PlayNowPreemptsCurrentSession(t *testing.T) {
	src := newFakeSource()
	src.register("t1", &blockingReader{data: []byte("a"), block: true})
	src.register("t2", &blockingReader{data: []byte("b")})
	sink := &fakeSink{}

	e := New(src, sink, 0)
	sub := e.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.EnqueueTracks([]track.Track{{URI: "t1"}})

	// Wait for t1 to actually start.
	waitForTrack(t, sub, "t1")

	e.PlayNow(track.Track{URI: "t2"})

	se := waitForSessionEnded(t, sub)
	if se.Track.URI != "t1" || se.Result.Reason != track.EndCancelled {
		t.Fatalf("first SessionEnded = %+v, want t1 Cancelled", se)
	}

	waitForTrack(t, sub, "t2")
}

func TestEngine_RepeatAllReenqueuesCompletedTrack(t *testing.T) {
	src := newFakeSource()
	src.register("t1", &blockingReader{data: []byte("a")})
	sink := &fakeSink{}

	e := New(src, sink, 0)
	sub := e.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.SetRepeatMode(RepeatAll)
	e.EnqueueTracks([]track.Track{{URI: "t1"}})

	// Expect at least two completions of t1 (it keeps re-enqueuing).
	completions := 0
	timeout := time.After(2 * time.Second)
	for completions < 2 {
		select {
		case se := <-sub.SessionEnded:
			if se.Track.URI != "t1" || se.Result.Reason != track.EndCompleted {
				t.Fatalf("SessionEnded = %+v, want t1 Completed", se)
			}
			completions++
		case <-timeout:
			t.Fatalf("timed out after %d completions", completions)
		}
	}
}

func waitForTrack(t *testing.T, sub *Subscription, uri string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case tc := <-sub.TrackChanged:
			if tc.Track != nil && tc.Track.URI == uri {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for track %q", uri)
		}
	}
}

func waitForSessionEnded(t *testing.T, sub *Subscription) SessionEnded {
	t.Helper()
	select {
	case se := <-sub.SessionEnded:
		return se
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SessionEnded")
		return SessionEnded{}
	}
}

func TestEngine_PlayNowDedupsExistingQueueEntry(t *testing.T) {
	src := newFakeSource()
	src.register("t1", &blockingReader{data: []byte("a"), block: true})
	sink := &fakeSink{}

	e := New(src, sink, 0)
	sub := e.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.EnqueueTracks([]track.Track{{URI: "t1"}, {URI: "t2"}})
	waitForTrack(t, sub, "t1")

	e.PlayNow(track.Track{URI: "t2"})
	time.Sleep(50 * time.Millisecond)

	snap := e.QueueSnapshot()
	count := 0
	for _, tr := range snap {
		if tr.URI == "t2" {
			count++
		}
	}
	if count > 1 {
		t.Errorf("queue contains %d copies of t2, want at most 1", count)
	}
}
