// Package seal protects bearer tokens stored in a shared cache. A Sealer
// converts a token to and from the form written to the backing store, and
// owns the storage key naming so sealed and cleartext entries written by
// different deployments never collide.
package seal

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/tink-crypto/tink-go/v2/tink"
)

// Sealed values and their storage keys are versioned, allowing a format
// change to roll out without invalidating the whole cache.
const (
	valuePrefix = "sealed.v1."
	keyPrefix   = "sealed:"
)

// Sealer converts a bearer token to and from its stored form.
type Sealer interface {
	// Seal produces the value to store in the cache for the given token.
	Seal(ctx context.Context, key string, token string) (string, error)

	// Open recovers the token from a stored value. The key must be the
	// one the value was sealed under.
	Open(ctx context.Context, key string, sealed string) (string, error)

	// StorageKey maps a cache key to the key used in the backing store.
	StorageKey(key string) string

	// Close releases any resources held by the sealer.
	Close() error
}

// Cleartext stores tokens unchanged. It is used when at-rest encryption
// is not configured.
type Cleartext struct{}

func (Cleartext) Seal(_ context.Context, _ string, token string) (string, error) {
	return token, nil
}

func (Cleartext) Open(_ context.Context, _ string, sealed string) (string, error) {
	return sealed, nil
}

func (Cleartext) StorageKey(key string) string {
	return key
}

func (Cleartext) Close() error {
	return nil
}

// AEAD seals tokens with a Tink AEAD primitive. Each ciphertext is bound
// to its cache entry: the associated data is derived from the cache key,
// so a sealed value copied to another key fails to open.
type AEAD struct {
	primitive tink.AEAD
}

// NewAEAD wraps a Tink primitive, first proving it can complete a
// seal/open cycle so a misconfigured keyset fails at startup rather than
// on the first cache write.
func NewAEAD(primitive tink.AEAD) (*AEAD, error) {
	a := &AEAD{primitive: primitive}

	const check = "startup-check"
	sealed, err := a.Seal(context.Background(), check, check)
	if err != nil {
		return nil, fmt.Errorf("seal self-check: %w", err)
	}
	opened, err := a.Open(context.Background(), check, sealed)
	if err != nil {
		return nil, fmt.Errorf("open self-check: %w", err)
	}
	if opened != check {
		return nil, fmt.Errorf("self-check token mismatch after seal/open cycle")
	}

	return a, nil
}

func (a *AEAD) Seal(_ context.Context, key string, token string) (string, error) {
	ciphertext, err := a.primitive.Encrypt([]byte(token), associatedData(key))
	if err != nil {
		return "", fmt.Errorf("sealing token for %q: %w", key, err)
	}
	return valuePrefix + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (a *AEAD) Open(_ context.Context, key string, sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, valuePrefix)
	if !ok {
		return "", fmt.Errorf("stored value for %q is not a sealed token", key)
	}

	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding sealed token for %q: %w", key, err)
	}

	token, err := a.primitive.Decrypt(ciphertext, associatedData(key))
	if err != nil {
		return "", fmt.Errorf("opening sealed token for %q: %w", key, err)
	}

	return string(token), nil
}

func (a *AEAD) StorageKey(key string) string {
	return keyPrefix + key
}

func (a *AEAD) Close() error {
	if closer, ok := a.primitive.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// associatedData binds a ciphertext to the cache entry it was sealed for.
func associatedData(key string) []byte {
	return []byte("bearerauth/token/" + key)
}
