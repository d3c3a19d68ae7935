package service

import "context"

type actorKey struct{}

// ContextWithActor records who is performing the operation, for history
// entries and events.
func ContextWithActor(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user id, or nil for system calls.
func ActorFromContext(ctx context.Context) *string {
	id, ok := ctx.Value(actorKey{}).(string)
	if !ok {
		return nil
	}
	return &id
}
