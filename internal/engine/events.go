package engine

import "github.com/llehouerou/playerd/internal/track"

// StateChange is emitted when the player's state actually changes.
type StateChange struct {
	Previous PlayerState
	Current  PlayerState
}

// TrackChange is emitted at each dequeue attempt, including when the
// result is "none" (Track is nil).
type TrackChange struct {
	Track *track.Track
}

// SessionEnded is emitted before the loop decides its next action for a
// finished session.
type SessionEnded struct {
	Track  track.Track
	Result track.EndResult
}
