package bearerauth

import (
	"context"
	"time"
)

// Token is the result of a token fetch. An empty AccessToken indicates the
// source could not produce a usable credential; the transport sends the
// request unauthenticated in that case rather than failing it.
type Token struct {
	// AccessToken is the opaque bearer credential.
	AccessToken string

	// Expiry is the token's expiry time, when the source knows it. A zero
	// value means the source makes no expiry claim; cache lifetime still
	// applies.
	Expiry time.Time
}

// TokenSource produces bearer tokens for outgoing requests.
//
// Implementations are expected to be safe for concurrent use: a single
// source may serve many in-flight requests.
type TokenSource interface {
	// Token fetches a token. Fetch failures are returned unchanged to the
	// caller of the round trip; the transport attempts no recovery.
	Token(ctx context.Context) (Token, error)

	// CacheKey returns a stable key identifying the credential this source
	// produces, or the empty string if tokens from this source must not be
	// cached.
	CacheKey() string
}

// TokenCache is a key-value store with time-to-live semantics for cached
// tokens. The backend owns expiry: the lifetime passed to Get is a hint
// (for example, a client-side caching window), not a contract this package
// enforces.
//
// Implementations must be safe for concurrent use; the same cache may be
// shared across many transports.
type TokenCache interface {
	// Get retrieves a cached token. Returns the token, whether it was
	// found, and any error.
	Get(ctx context.Context, key string, lifetime time.Duration) (string, bool, error)

	// Set stores a token in the cache.
	Set(ctx context.Context, key string, value string) error

	// Invalidate removes a token from the cache.
	Invalidate(ctx context.Context, key string) error
}

// nopCache is the "no cache configured" branch: every lookup misses and
// every store succeeds without effect, so the transport degrades to a
// direct fetch per request.
type nopCache struct{}

func (nopCache) Get(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (nopCache) Set(context.Context, string, string) error { return nil }

func (nopCache) Invalidate(context.Context, string) error { return nil }
