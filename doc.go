// Package bearerauth decorates outgoing HTTP requests with bearer tokens
// obtained from a pluggable [TokenSource], optionally caching tokens in a
// [TokenCache] so that a fresh token is not fetched for every request.
//
// Only requests explicitly marked for authorization are touched. Mark a
// request by attaching the fetch-token mode to its context:
//
//	ctx := bearerauth.WithMode(req.Context(), bearerauth.ModeFetchToken)
//	resp, err := client.Do(req.WithContext(ctx))
//
// The [Transport] is a standard [net/http.RoundTripper] and composes with
// any HTTP client:
//
//	transport := bearerauth.NewTransport(source,
//		bearerauth.WithCache(tokenCache, bearerauth.CacheConfig{KeyPrefix: "OAuth2::"}),
//	)
//	client := &http.Client{Transport: transport}
//
// Key constraints:
//   - The transport never modifies a request that does not carry the
//     fetch-token mode.
//   - A source that returns an empty cache key is never cached; every
//     marked request fetches a token.
//   - The transport provides no locking: concurrent requests racing to
//     populate the same cache key are last-write-wins, arbitrated by the
//     cache backend.
//
// Concrete token sources live in the source package; cache backends
// (in-memory and Valkey, with optional at-rest encryption) live in the
// cache package.
package bearerauth
