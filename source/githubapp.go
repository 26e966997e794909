package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/chinmina/bearerauth"
)

// GitHubApp vends GitHub App installation tokens. Token exchange (app JWT
// for installation token) is delegated to ghinstallation, which refreshes
// expired tokens itself; the bearerauth cache sits in front to spare the
// exchange on every request.
type GitHubApp struct {
	transport *ghinstallation.Transport
	cacheKey  string
}

// GitHubAppOption configures a GitHubApp source.
type GitHubAppOption func(*ghinstallation.Transport)

// WithEnterpriseURLs sets the GitHub Enterprise Server API endpoints.
func WithEnterpriseURLs(apiURL string) GitHubAppOption {
	return func(t *ghinstallation.Transport) {
		t.BaseURL = apiURL
	}
}

// NewGitHubApp creates a source producing installation tokens for the
// given app and installation, signed with the PEM-encoded private key.
func NewGitHubApp(base http.RoundTripper, appID, installationID int64, privateKeyPEM []byte, opts ...GitHubAppOption) (*GitHubApp, error) {
	if base == nil {
		base = http.DefaultTransport
	}

	transport, err := ghinstallation.New(base, appID, installationID, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("configuring installation transport: %w", err)
	}

	for _, opt := range opts {
		opt(transport)
	}

	return &GitHubApp{
		transport: transport,
		cacheKey:  fmt.Sprintf("github-app://%d/%d", appID, installationID),
	}, nil
}

func (s *GitHubApp) Token(ctx context.Context) (bearerauth.Token, error) {
	token, err := s.transport.Token(ctx)
	if err != nil {
		return bearerauth.Token{}, fmt.Errorf("installation token fetch: %w", err)
	}

	return bearerauth.Token{AccessToken: token}, nil
}

// CacheKey namespaces by app and installation ID.
func (s *GitHubApp) CacheKey() string {
	return s.cacheKey
}
