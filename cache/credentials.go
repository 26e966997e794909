package cache

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/chinmina/iamcacheauth"
	"github.com/valkey-io/valkey-go"
)

// valkeyAuth is the resolved authentication for the Valkey connection:
// the credentials callback handed to the client, and the connection
// lifetime required by the credential type.
type valkeyAuth struct {
	credentials  func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error)
	connLifetime time.Duration
}

// iamTokenGenerator yields short-lived ElastiCache IAM auth tokens.
type iamTokenGenerator interface {
	Token(ctx context.Context) (string, error)
}

// newValkeyAuth resolves connection authentication from configuration:
// a static username/password pair, or per-connection IAM auth tokens
// signed with the ambient AWS credentials.
func newValkeyAuth(ctx context.Context, cfg ValkeyConfig) (valkeyAuth, error) {
	if !cfg.IAMEnabled {
		return valkeyAuth{credentials: staticCredentials(cfg.Username, cfg.Password)}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return valkeyAuth{}, fmt.Errorf("loading AWS config for IAM auth: %w", err)
	}

	var opts []iamcacheauth.Option
	if cfg.IAMServerless {
		opts = append(opts, iamcacheauth.WithServerless())
	}

	gen, err := iamcacheauth.NewElastiCache(cfg.Username, cfg.IAMCacheName, awsCfg, opts...)
	if err != nil {
		return valkeyAuth{}, fmt.Errorf("creating IAM token generator: %w", err)
	}

	return valkeyAuth{
		credentials: iamCredentials(cfg.Username, gen),
		// ElastiCache rejects IAM-authenticated connections after 12
		// hours; recycle before then so the fresh token takes effect.
		connLifetime: 11 * time.Hour,
	}, nil
}

func staticCredentials(username, password string) func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
	return func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
		return valkey.AuthCredentials{
			Username: username,
			Password: password,
		}, nil
	}
}

func iamCredentials(username string, gen iamTokenGenerator) func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
	return func(valkey.AuthCredentialsContext) (valkey.AuthCredentials, error) {
		// The credentials callback carries no context.Context; signing is
		// a local operation, so an unbounded background context is safe
		// and avoids capturing a cancellable startup context.
		token, err := gen.Token(context.Background())
		if err != nil {
			return valkey.AuthCredentials{}, fmt.Errorf("generating IAM auth token: %w", err)
		}
		return valkey.AuthCredentials{
			Username: username,
			Password: token,
		}, nil
	}
}
