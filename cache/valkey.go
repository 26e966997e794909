package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chinmina/bearerauth/cache/seal"
	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// Valkey implements a distributed token cache with server-assisted
// client-side caching. An optional seal.Sealer protects stored tokens
// at rest.
type Valkey struct {
	client valkey.Client
	ttl    time.Duration
	sealer seal.Sealer
}

// NewValkey creates a Valkey-backed cache. The ttl parameter is the expiry
// applied to stored tokens. A nil sealer stores tokens in cleartext.
func NewValkey(client valkey.Client, ttl time.Duration, sealer seal.Sealer) (*Valkey, error) {
	if sealer == nil {
		sealer = seal.Cleartext{}
	}
	return &Valkey{
		client: client,
		ttl:    ttl,
		sealer: sealer,
	}, nil
}

// Get retrieves a token using server-assisted client-side caching. The
// lifetime hint bounds the client-side caching window for this read; when
// zero, the cache's configured TTL applies.
//
// A stored value that fails to open is treated as corrupt: the error is
// returned and the entry is invalidated on a best-effort basis.
func (v *Valkey) Get(ctx context.Context, key string, lifetime time.Duration) (string, bool, error) {
	window := lifetime
	if window <= 0 {
		window = v.ttl
	}

	// DoCache enables client-side caching with server tracking
	cmd := v.client.B().Get().Key(v.sealer.StorageKey(key)).Cache()
	result := v.client.DoCache(ctx, cmd, window)

	if err := result.Error(); err != nil {
		// Key not found is not an error in our semantics
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached value: %w", err)
	}

	value, err := result.ToString()
	if err != nil {
		return "", false, fmt.Errorf("failed to convert cached value to string: %w", err)
	}

	token, err := v.sealer.Open(ctx, key, value)
	if err != nil {
		_ = v.Invalidate(ctx, key)
		return "", false, fmt.Errorf("opening cached value for key %q: %w", key, err)
	}

	return token, true, nil
}

// Set stores a token with the configured TTL.
func (v *Valkey) Set(ctx context.Context, key string, token string) error {
	value, err := v.sealer.Seal(ctx, key, token)
	if err != nil {
		return fmt.Errorf("sealing token: %w", err)
	}

	cmd := v.client.B().Set().Key(v.sealer.StorageKey(key)).Value(value).ExSeconds(int64(v.ttl.Seconds())).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set cached value: %w", err)
	}
	return nil
}

// Invalidate removes a token from the cache.
func (v *Valkey) Invalidate(ctx context.Context, key string) error {
	cmd := v.client.B().Del().Key(v.sealer.StorageKey(key)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to invalidate cached value: %w", err)
	}
	return nil
}

// Close releases the cache client and the sealer.
func (v *Valkey) Close() error {
	if err := v.sealer.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing token sealer")
	}
	v.client.Close()
	return nil
}
