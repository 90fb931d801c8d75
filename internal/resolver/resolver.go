// Package resolver turns a user-supplied TrackRequest into one or more
// playable Tracks, dispatching across concrete resolvers by a
// can-resolve discriminator.
package resolver

import (
	"context"

	"github.com/llehouerou/playerd/internal/track"
)

// Resolver turns a TrackRequest into zero or more Tracks.
type Resolver interface {
	// Name identifies the resolver for logging.
	Name() string
	// CanResolve reports whether this resolver should handle req.
	CanResolve(req track.TrackRequest) bool
	// Resolve returns the tracks req refers to. Implementations should
	// treat ctx cancellation as a reason to abort any child process or
	// network call in flight.
	Resolve(ctx context.Context, req track.TrackRequest) ([]track.Track, error)
}

// RoutingResolver composes an ordered list of concrete resolvers and
// delegates to the first whose CanResolve returns true.
type RoutingResolver struct {
	resolvers []Resolver
}

// NewRoutingResolver builds a RoutingResolver trying resolvers in order.
func NewRoutingResolver(resolvers ...Resolver) *RoutingResolver {
	return &RoutingResolver{resolvers: resolvers}
}

// Name implements Resolver.
func (r *RoutingResolver) Name() string { return "routing" }

// CanResolve reports true if any registered resolver can handle req.
func (r *RoutingResolver) CanResolve(req track.TrackRequest) bool {
	_, ok := r.pick(req)
	return ok
}

// Resolve delegates to the first resolver whose CanResolve matches req.
func (r *RoutingResolver) Resolve(ctx context.Context, req track.TrackRequest) ([]track.Track, error) {
	picked, ok := r.pick(req)
	if !ok {
		return nil, &NoResolverError{Raw: req.Raw}
	}
	return picked.Resolve(ctx, req)
}

func (r *RoutingResolver) pick(req track.TrackRequest) (Resolver, bool) {
	for _, candidate := range r.resolvers {
		if candidate.CanResolve(req) {
			return candidate, true
		}
	}
	return nil, false
}

// NoResolverError is returned when no registered resolver claims a
// request.
type NoResolverError struct {
	Raw string
}

func (e *NoResolverError) Error() string {
	return "no resolver for request: " + e.Raw
}
