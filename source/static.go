// Package source provides concrete token sources for the bearerauth
// transport: fixed tokens, OAuth2 flows, locally-signed JWT credentials
// and GitHub App installation tokens.
package source

import (
	"context"

	"github.com/chinmina/bearerauth"
)

// Static returns the same token for every request. Useful for API keys
// and long-lived personal access tokens.
type Static struct {
	// AccessToken is the fixed bearer credential.
	AccessToken string

	// Key is the optional cache key. Leave empty to disable caching;
	// a static token costs nothing to "fetch", so caching it is rarely
	// worthwhile.
	Key string
}

func (s Static) Token(_ context.Context) (bearerauth.Token, error) {
	return bearerauth.Token{AccessToken: s.AccessToken}, nil
}

func (s Static) CacheKey() string {
	return s.Key
}
