// Package queue implements the playback engine's pending-track queue: an
// ordered, mutable sequence supporting front-insert, bulk append,
// dedup-by-id removal, shuffle dequeue, and a thread-safe snapshot.
//
// The engine (internal/engine) is the queue's only mutator, serialized
// through its single-consumer command loop; Snapshot is the one method
// other goroutines may call directly, so the queue still guards its slice
// with a mutex rather than relying on that external discipline.
package queue

import (
	"math/rand/v2"
	"sync"

	"github.com/llehouerou/playerd/internal/track"
)

// Queue is an ordered, mutable sequence of pending tracks.
type Queue struct {
	mu     sync.Mutex
	tracks []track.Track
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// AppendMany appends tracks to the tail of the queue.
func (q *Queue) AppendMany(tracks []track.Track) {
	if len(tracks) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, tracks...)
}

// PushFront inserts a single track at the head of the queue.
func (q *Queue) PushFront(t track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append([]track.Track{t}, q.tracks...)
}

// RemoveWhereID removes every queued track whose URI matches uri.
// Returns the number of tracks removed.
func (q *Queue) RemoveWhereID(uri string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.tracks[:0:0]
	removed := 0
	for _, t := range q.tracks {
		if t.URI == uri {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	q.tracks = kept
	return removed
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
}

// DequeueNext removes and returns the next track to play, or false if the
// queue is empty. When shuffle is false it returns the head of the queue;
// when true it removes a uniformly random element.
func (q *Queue) DequeueNext(shuffle bool) (track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return track.Track{}, false
	}

	idx := 0
	if shuffle {
		idx = rand.IntN(len(q.tracks))
	}

	t := q.tracks[idx]
	q.tracks = append(q.tracks[:idx], q.tracks[idx+1:]...)
	return t, true
}

// Snapshot returns a stable, independent copy of the queue's current
// contents. Safe to call from any goroutine.
func (q *Queue) Snapshot() []track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]track.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Count returns the number of tracks currently queued.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}
