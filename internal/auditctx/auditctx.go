// Package auditctx carries the request actor from the HTTP layer down to audit logging.
package auditctx

import "context"

// Actor identifies who issued a request.
type Actor struct {
	Subject   string
	IPAddress string
	RequestID string
}

type actorContextKey struct{}

// WithActor returns a derived context holding actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
