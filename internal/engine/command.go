package engine

import "github.com/llehouerou/playerd/internal/track"

// Command is the tagged union of everything the supervisor's
// single-consumer loop accepts. The public API methods produce the
// exported variants; sessionEndedCommand is produced internally by the
// session supervisor task and is not exported.
type Command interface {
	isCommand()
}

// EnqueueCommand appends tracks to the tail of the queue.
type EnqueueCommand struct {
	Tracks []track.Track
}

func (EnqueueCommand) isCommand() {}

// PlayNowCommand removes any prior occurrence of Track and pushes it to
// the front of the queue, pre-empting the current session if one exists.
type PlayNowCommand struct {
	Track track.Track
}

func (PlayNowCommand) isCommand() {}

// SkipCommand cancels the current session without starting the next
// track directly; sessionEndedCommand drives the next start.
type SkipCommand struct{}

func (SkipCommand) isCommand() {}

// PauseCommand closes the current session's pause gate.
type PauseCommand struct{}

func (PauseCommand) isCommand() {}

// ResumeCommand opens the current session's pause gate.
type ResumeCommand struct{}

func (ResumeCommand) isCommand() {}

// ClearCommand empties the pending queue without touching an in-flight
// session.
type ClearCommand struct{}

func (ClearCommand) isCommand() {}

// StopCommand clears the queue, cancels the current session, and
// transitions to Stopped.
type StopCommand struct{}

func (StopCommand) isCommand() {}

// sessionEndedCommand reports a finished session back to the loop. It is
// produced only by the supervisor's own background task.
type sessionEndedCommand struct {
	Track  track.Track
	Result track.EndResult
}

func (sessionEndedCommand) isCommand() {}
