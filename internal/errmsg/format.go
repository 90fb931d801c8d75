// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Session operations
	OpSessionStart  Op = "start playback session"
	OpSessionPause  Op = "pause playback"
	OpSessionResume Op = "resume playback"
	OpSessionCancel Op = "cancel playback session"

	// Resolver operations
	OpResolve       Op = "resolve track request"
	OpResolverFetch Op = "fetch track metadata"

	// Cache operations
	OpCacheGet Op = "read from cache"
	OpCacheSet Op = "write to cache"

	// Queue operations
	OpEnqueue    Op = "enqueue track"
	OpPlayNow    Op = "play track now"
	OpDequeue    Op = "dequeue next track"
	OpQueueClear Op = "clear queue"

	// Source operations
	OpSourceOpen    Op = "open audio source"
	OpSourceFetch   Op = "fetch audio"
	OpSourceDecode  Op = "decode audio"
	OpSourcePump    Op = "pump audio pipeline"
	OpSourceDispose Op = "dispose audio source"

	// Sink operations
	OpSinkWrite    Op = "write to audio sink"
	OpSinkComplete Op = "complete audio sink"

	// Engine lifecycle
	OpEngineStart Op = "start engine"
	OpEngineStop  Op = "stop engine"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
