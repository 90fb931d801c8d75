// Package engine implements the playback loop supervisor: a
// single-consumer command dispatcher that owns the track queue, the
// current session slot, and player state, and emits events as an
// observer capability set per the supervisor's design.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/playerd/internal/audiosink"
	"github.com/llehouerou/playerd/internal/audiosource"
	"github.com/llehouerou/playerd/internal/queue"
	"github.com/llehouerou/playerd/internal/session"
	"github.com/llehouerou/playerd/internal/track"
)

// DefaultCommandCapacity is the command channel's buffer size absent
// configuration.
const DefaultCommandCapacity = 256

// CurrentSessionInfo is a read-only snapshot of the active session, safe
// to read from any goroutine.
type CurrentSessionInfo struct {
	SessionID string
	Track     track.Track
	State     PlayerState
	StartedAt time.Time
}

type activeSession struct {
	id        string
	track     track.Track
	startedAt time.Time
	gate      *session.PauseGate
	cancel    context.CancelFunc
}

// Engine is the playback loop supervisor. It owns the command channel's
// consumer end, the queue, and the session slot; a session holds only
// the channel's producer end and its own cancel token, breaking the
// cycle between loop and session.
type Engine struct {
	cmdCh  chan Command
	queue  *queue.Queue
	source audiosource.Source
	sink   audiosink.Sink

	state      PlayerState
	repeatMode RepeatMode
	shuffle    bool
	session    *activeSession

	loopCancel context.CancelFunc
	wg         sync.WaitGroup

	current sync.Map // single key "info" -> *CurrentSessionInfo, written by loop, read by anyone

	subsMu sync.Mutex
	subs   []*Subscription

	doneCh chan struct{}
}

// New creates an Engine. queueCapacity <= 0 uses DefaultCommandCapacity.
func New(source audiosource.Source, sink audiosink.Sink, queueCapacity int) *Engine {
	if queueCapacity <= 0 {
		queueCapacity = DefaultCommandCapacity
	}
	return &Engine{
		cmdCh:  make(chan Command, queueCapacity),
		queue:  queue.New(),
		source: source,
		sink:   sink,
		state:  StateIdle,
		doneCh: make(chan struct{}),
	}
}

// Run drives the command loop until ctx is cancelled. It blocks until
// shutdown completes: the active session is cancelled, its supervisor
// task is awaited, and the sink is disposed.
func (e *Engine) Run(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	e.loopCancel = cancel
	defer close(e.doneCh)
	defer e.shutdown()

	for {
		select {
		case cmd := <-e.cmdCh:
			e.handleCommand(loopCtx, cmd)
		case <-loopCtx.Done():
			return
		}
	}
}

func (e *Engine) shutdown() {
	if e.session != nil {
		e.session.cancel()
	}
	e.wg.Wait()
	_ = e.sink.Close()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
}

// Done reports when Run has finished shutting down.
func (e *Engine) Done() <-chan struct{} {
	return e.doneCh
}

// --- public API ---

// EnqueueTracks appends tracks to the tail of the queue.
func (e *Engine) EnqueueTracks(ts []track.Track) {
	e.post(EnqueueCommand{Tracks: ts})
}

// PlayNow moves t to the front of the queue, pre-empting playback.
func (e *Engine) PlayNow(t track.Track) {
	e.post(PlayNowCommand{Track: t})
}

// Skip cancels the current session without starting the next track
// directly.
func (e *Engine) Skip() {
	e.post(SkipCommand{})
}

// Pause closes the current session's pause gate.
func (e *Engine) Pause() {
	e.post(PauseCommand{})
}

// Resume opens the current session's pause gate.
func (e *Engine) Resume() {
	e.post(ResumeCommand{})
}

// Clear empties the pending queue without affecting an in-flight
// session.
func (e *Engine) Clear() {
	e.post(ClearCommand{})
}

// Stop clears the queue, cancels the current session, and transitions
// to Stopped.
func (e *Engine) Stop() {
	e.post(StopCommand{})
}

// SetRepeatMode sets the repeat policy applied when a session ends.
func (e *Engine) SetRepeatMode(m RepeatMode) {
	e.post(setRepeatModeCommand{Mode: m})
}

// SetShuffle toggles shuffle dequeue.
func (e *Engine) SetShuffle(b bool) {
	e.post(setShuffleCommand{Shuffle: b})
}

// QueueSnapshot returns a stable, independent copy of the pending queue.
func (e *Engine) QueueSnapshot() []track.Track {
	return e.queue.Snapshot()
}

// CurrentSession returns a read-only snapshot of the active session, or
// nil if none.
func (e *Engine) CurrentSession() *CurrentSessionInfo {
	v, ok := e.current.Load("info")
	if !ok {
		return nil
	}
	return v.(*CurrentSessionInfo)
}

// Subscribe registers a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

func (e *Engine) post(cmd Command) {
	e.cmdCh <- cmd
}

// setRepeatModeCommand and setShuffleCommand are handled like the other
// commands so every mutation of loop-owned state happens on the single
// consumer goroutine.
type setRepeatModeCommand struct{ Mode RepeatMode }

func (setRepeatModeCommand) isCommand() {}

type setShuffleCommand struct{ Shuffle bool }

func (setShuffleCommand) isCommand() {}

// --- command handling ---

func (e *Engine) handleCommand(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case EnqueueCommand:
		if len(c.Tracks) == 0 {
			return
		}
		e.queue.AppendMany(c.Tracks)
		if e.state == StateIdle || e.state == StateStopped {
			e.tryStartNext(ctx)
		}
	case PlayNowCommand:
		e.queue.RemoveWhereID(c.Track.URI)
		e.queue.PushFront(c.Track)
		if e.session == nil || e.state == StateIdle || e.state == StateStopped {
			e.tryStartNext(ctx)
		} else {
			e.session.cancel()
		}
	case SkipCommand:
		if e.session != nil {
			e.session.cancel()
		}
	case PauseCommand:
		if e.state == StatePlaying && e.session != nil {
			e.session.gate.Close()
			e.setState(StatePaused)
		}
	case ResumeCommand:
		if e.state == StatePaused && e.session != nil {
			e.session.gate.Open()
			e.setState(StatePlaying)
		}
	case ClearCommand:
		e.queue.Clear()
	case StopCommand:
		e.queue.Clear()
		if e.session != nil {
			e.session.cancel()
		}
		e.setState(StateStopped)
	case setRepeatModeCommand:
		e.repeatMode = c.Mode
	case setShuffleCommand:
		e.shuffle = c.Shuffle
	case sessionEndedCommand:
		e.handleSessionEnded(ctx, c)
	}
}

func (e *Engine) handleSessionEnded(ctx context.Context, c sessionEndedCommand) {
	e.session = nil
	e.current.Delete("info")

	logSessionEnd(c)

	e.publishSessionEnded(SessionEnded{Track: c.Track, Result: c.Result})

	if c.Result.Reason != track.EndCancelled {
		switch e.repeatMode {
		case RepeatAll:
			e.queue.AppendMany([]track.Track{c.Track})
		case RepeatOne:
			e.queue.PushFront(c.Track)
		}
	}

	if e.queue.Count() > 0 {
		e.tryStartNext(ctx)
	} else {
		e.setState(StateIdle)
	}
}

// tryStartNext dequeues the next track and spawns its session's
// supervisor task. It is a no-op if the session slot is occupied.
func (e *Engine) tryStartNext(ctx context.Context) {
	if e.session != nil {
		return
	}

	t, ok := e.queue.DequeueNext(e.shuffle)
	if !ok {
		e.publishTrack(nil)
		e.setState(StateIdle)
		return
	}
	e.publishTrack(&t)
	e.setState(StatePlaying)

	sessionCtx, cancel := context.WithCancel(ctx)
	gate := session.NewPauseGate()
	sess := session.New(t, e.source, e.sink, gate)
	id := uuid.NewString()

	e.session = &activeSession{
		id:        id,
		track:     t,
		startedAt: time.Now(),
		gate:      gate,
		cancel:    cancel,
	}
	e.current.Store("info", &CurrentSessionInfo{
		SessionID: id,
		Track:     t,
		State:     StatePlaying,
		StartedAt: e.session.startedAt,
	})

	log.Debug().Str("session_id", id).Str("track", t.URI).Msg("starting playback session")

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		result := sess.Start(sessionCtx)
		e.post(sessionEndedCommand{Track: t, Result: result})
	}()
}

func logSessionEnd(c sessionEndedCommand) {
	ev := log.Debug()
	if c.Result.Reason == track.EndFailed {
		ev = log.Warn()
	}
	ev.Str("track", c.Track.URI).Str("reason", c.Result.Reason.String()).Str("details", c.Result.Details).
		Msg("playback session ended")
}

func (e *Engine) setState(s PlayerState) {
	if e.state == s {
		return
	}
	prev := e.state
	e.state = s
	if e.session != nil {
		e.current.Store("info", &CurrentSessionInfo{
			SessionID: e.session.id,
			Track:     e.session.track,
			State:     s,
			StartedAt: e.session.startedAt,
		})
	}
	e.publishState(StateChange{Previous: prev, Current: s})
}

func (e *Engine) publishState(ev StateChange) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.subs {
		sub.sendState(ev)
	}
}

func (e *Engine) publishTrack(t *track.Track) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.subs {
		sub.sendTrack(TrackChange{Track: t})
	}
}

func (e *Engine) publishSessionEnded(ev SessionEnded) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.subs {
		sub.sendSessionEnded(ev)
	}
}
