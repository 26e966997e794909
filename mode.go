package bearerauth

import "context"

// ModeFetchToken is the authorization mode that causes [Transport] to
// attach a bearer token to a request. Any other mode (including none)
// leaves the request untouched.
const ModeFetchToken = "fetch-token"

type modeContextKey struct{}

// WithMode returns a context carrying the authorization mode for an
// outgoing request. The mode travels with the request context, so it is
// set per request rather than per client.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, modeContextKey{}, mode)
}

// ModeOf returns the authorization mode carried by ctx, or the empty
// string when none has been set.
func ModeOf(ctx context.Context) string {
	mode, _ := ctx.Value(modeContextKey{}).(string)
	return mode
}
