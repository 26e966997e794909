package bearerauth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultLifetime is the cache lifetime used when [CacheConfig.Lifetime]
// is left zero.
const DefaultLifetime = 1500 * time.Second

// CacheConfig controls how fetched tokens are cached. It is resolved once
// at transport construction and immutable afterwards.
type CacheConfig struct {
	// Lifetime is the time-to-live hint passed through to the cache
	// backend. Defaults to DefaultLifetime.
	Lifetime time.Duration

	// KeyPrefix namespaces cache entries: the storage key is the prefix
	// concatenated with the source-provided cache key. Defaults to "".
	KeyPrefix string
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.Lifetime == 0 {
		c.Lifetime = DefaultLifetime
	}
	return c
}

// Transport is an [http.RoundTripper] that attaches bearer tokens to
// requests marked with [ModeFetchToken]. Tokens are looked up in the
// configured cache first; on a miss the source is asked for a fresh token,
// which is stored back for subsequent requests.
//
// The transport holds references to its collaborators but does not own
// them: closing a cache backend remains the caller's responsibility.
type Transport struct {
	source TokenSource
	cache  TokenCache
	config CacheConfig
	base   http.RoundTripper
}

// Option configures a [Transport].
type Option func(*Transport)

// WithCache configures a token cache and its cache settings. Without this
// option every marked request goes directly to the token source. A nil
// cache is treated as no cache configured.
func WithCache(cache TokenCache, config CacheConfig) Option {
	return func(t *Transport) {
		if cache != nil {
			t.cache = cache
		}
		t.config = config
	}
}

// WithBase sets the underlying round tripper used to send requests.
// Defaults to [http.DefaultTransport].
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// NewTransport creates a transport that authorizes marked requests using
// tokens from source.
func NewTransport(source TokenSource, opts ...Option) *Transport {
	t := &Transport{
		source: source,
		cache:  nopCache{},
		base:   http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.config = t.config.withDefaults()
	return t
}

// RoundTrip implements [http.RoundTripper]. Requests whose context does
// not carry [ModeFetchToken] are passed through unmodified. For marked
// requests the Authorization header is set from the cache when possible,
// otherwise from a fresh fetch.
//
// A fetch that yields no access token sends the request unauthenticated:
// callers relying on authorization must check the response status
// themselves. Errors from the source or cache propagate unchanged.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if ModeOf(req.Context()) != ModeFetchToken {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	key := t.cacheKey()

	if key != "" {
		cached, ok, err := t.cache.Get(ctx, key, t.config.Lifetime)
		if err != nil {
			return nil, fmt.Errorf("cached token retrieval: %w", err)
		}
		if ok {
			return t.base.RoundTrip(withBearer(req, cached))
		}
	}

	token, err := t.source.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token fetch: %w", err)
	}

	if token.AccessToken == "" {
		// Fail open: the source produced no credential, so the request
		// proceeds unauthenticated.
		log.Ctx(ctx).Warn().
			Str("url", req.URL.Redacted()).
			Msg("token source returned no access token; request sent unauthenticated")
		return t.base.RoundTrip(req)
	}

	if key != "" {
		if err := t.cache.Set(ctx, key, token.AccessToken); err != nil {
			return nil, fmt.Errorf("caching token: %w", err)
		}
	}

	return t.base.RoundTrip(withBearer(req, token.AccessToken))
}

// cacheKey computes the storage key for the transport's source, or ""
// when the source opts out of caching.
func (t *Transport) cacheKey() string {
	key := t.source.CacheKey()
	if key == "" {
		return ""
	}
	return t.config.KeyPrefix + key
}

// withBearer clones the request and sets its Authorization header. The
// caller's request is never mutated, per the RoundTripper contract.
func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}
