package model

import "context"

// commandIDKey carries a client command id through a request context.
type commandIDKey struct{}

// WithCommandID tags ctx with a client-supplied command id. A second
// command carrying the same id is acknowledged without being applied.
func WithCommandID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, commandIDKey{}, id)
}

// CommandIDFrom returns the command id carried by ctx, or "".
func CommandIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(commandIDKey{}).(string)
	return id
}
