package source

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/chinmina/bearerauth"
	"golang.org/x/oauth2/clientcredentials"
	"gopkg.in/yaml.v3"
)

// Definition is a declarative token source, typically loaded from a YAML
// document listing the sources an application may use:
//
//	sources:
//	  - name: ci
//	    type: oauth2-client-credentials
//	    clientID: my-client
//	    clientSecretFile: /run/secrets/client-secret
//	    tokenURL: https://auth.example.com/oauth/token
//	    scopes: [read:builds]
//	  - name: github
//	    type: github-app
//	    appID: 312512
//	    installationID: 41123551
//	    privateKeyFile: /run/secrets/github-app-key.pem
type Definition struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// static
	AccessToken string `yaml:"accessToken"`
	CacheKey    string `yaml:"cacheKey"`

	// oauth2-client-credentials
	ClientID         string   `yaml:"clientID"`
	ClientSecret     string   `yaml:"clientSecret"`
	ClientSecretFile string   `yaml:"clientSecretFile"`
	TokenURL         string   `yaml:"tokenURL"`
	Scopes           []string `yaml:"scopes"`

	// jwt-access
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	KeyID    string `yaml:"keyID"`

	// github-app
	AppID          int64 `yaml:"appID"`
	InstallationID int64 `yaml:"installationID"`

	// jwt-access and github-app
	PrivateKeyFile string `yaml:"privateKeyFile"`
}

// Config is the root of a source definition document.
type Config struct {
	Sources []Definition `yaml:"sources"`
}

// LoadConfig parses a YAML source definition document.
func LoadConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing source configuration: %w", err)
	}

	seen := map[string]bool{}
	for _, def := range cfg.Sources {
		if def.Name == "" {
			return Config{}, fmt.Errorf("source definition missing name")
		}
		if seen[def.Name] {
			return Config{}, fmt.Errorf("duplicate source definition %q", def.Name)
		}
		seen[def.Name] = true
	}

	return cfg, nil
}

// Lookup returns the named definition, or an error listing nothing found.
func (c Config) Lookup(name string) (Definition, error) {
	for _, def := range c.Sources {
		if def.Name == name {
			return def, nil
		}
	}
	return Definition{}, fmt.Errorf("no source definition named %q", name)
}

// Build constructs the token source a definition describes. The base
// round tripper is used for sources that perform their own HTTP calls.
func (d Definition) Build(ctx context.Context, base http.RoundTripper) (bearerauth.TokenSource, error) {
	switch d.Type {
	case "static":
		if d.AccessToken == "" {
			return nil, fmt.Errorf("source %q: accessToken is required", d.Name)
		}
		return Static{AccessToken: d.AccessToken, Key: d.CacheKey}, nil

	case "oauth2-client-credentials":
		secret := d.ClientSecret
		if d.ClientSecretFile != "" {
			data, err := os.ReadFile(d.ClientSecretFile)
			if err != nil {
				return nil, fmt.Errorf("source %q: reading client secret: %w", d.Name, err)
			}
			secret = string(data)
		}
		if d.ClientID == "" || secret == "" || d.TokenURL == "" {
			return nil, fmt.Errorf("source %q: clientID, client secret and tokenURL are required", d.Name)
		}
		return ClientCredentials(ctx, clientcredentials.Config{
			ClientID:     d.ClientID,
			ClientSecret: secret,
			TokenURL:     d.TokenURL,
			Scopes:       d.Scopes,
		}), nil

	case "jwt-access":
		key, err := os.ReadFile(d.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("source %q: reading private key: %w", d.Name, err)
		}
		var opts []JWTAccessOption
		if d.KeyID != "" {
			opts = append(opts, WithKeyID(d.KeyID))
		}
		source, err := NewJWTAccess(key, d.Issuer, d.Audience, opts...)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", d.Name, err)
		}
		return source, nil

	case "github-app":
		key, err := os.ReadFile(d.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("source %q: reading private key: %w", d.Name, err)
		}
		source, err := NewGitHubApp(base, d.AppID, d.InstallationID, key)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", d.Name, err)
		}
		return source, nil

	default:
		return nil, fmt.Errorf("source %q: unknown type %q", d.Name, d.Type)
	}
}
