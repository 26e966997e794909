package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/chinmina/bearerauth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2 adapts an [oauth2.TokenSource] to the bearerauth interface.
// Refresh and reuse semantics remain the responsibility of the wrapped
// source (wrap with [oauth2.ReuseTokenSource] when the source itself
// should not be hit on every fetch).
type OAuth2 struct {
	source   oauth2.TokenSource
	cacheKey string
}

// NewOAuth2 wraps an oauth2 token source. The cacheKey identifies the
// credential the source produces; pass "" to disable caching.
func NewOAuth2(source oauth2.TokenSource, cacheKey string) *OAuth2 {
	return &OAuth2{
		source:   source,
		cacheKey: cacheKey,
	}
}

// ClientCredentials creates a source performing the OAuth2 client
// credentials grant. The cache key is derived from the token URL, client
// ID and scopes, so distinct grants never share a cache entry.
//
// The context is used for the HTTP client of all subsequent token
// fetches, per the oauth2 package's convention.
func ClientCredentials(ctx context.Context, cfg clientcredentials.Config) *OAuth2 {
	key := fmt.Sprintf("oauth2://%s@%s?scope=%s",
		cfg.ClientID, cfg.TokenURL, strings.Join(cfg.Scopes, "+"))
	return NewOAuth2(cfg.TokenSource(ctx), key)
}

func (s *OAuth2) Token(_ context.Context) (bearerauth.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return bearerauth.Token{}, fmt.Errorf("oauth2 token fetch: %w", err)
	}

	return bearerauth.Token{
		AccessToken: token.AccessToken,
		Expiry:      token.Expiry,
	}, nil
}

func (s *OAuth2) CacheKey() string {
	return s.cacheKey
}
