package source_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/chinmina/bearerauth/source"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigningKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return key, pemBytes
}

func TestNewJWTAccess_InvalidKey(t *testing.T) {
	_, err := source.NewJWTAccess([]byte("not a key"), "issuer", "audience")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing signing key")
}

func TestJWTAccess_TokenClaims(t *testing.T) {
	key, pemBytes := testSigningKey(t)

	s, err := source.NewJWTAccess(pemBytes, "svc@example.com", "https://api.example.com",
		source.WithKeyID("key-1"))
	require.NoError(t, err)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token.AccessToken, &claims, func(t *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "key-1", parsed.Header["kid"])
	assert.Equal(t, "svc@example.com", claims.Issuer)
	assert.Equal(t, "svc@example.com", claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{"https://api.example.com"}, claims.Audience)

	// issued-at backdated for clock drift, expiry roughly one hour out
	assert.True(t, claims.IssuedAt.Before(time.Now().Add(-30*time.Second)))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.WithinDuration(t, token.Expiry, claims.ExpiresAt.Time, time.Second)
}

func TestJWTAccess_CustomLifetime(t *testing.T) {
	_, pemBytes := testSigningKey(t)

	s, err := source.NewJWTAccess(pemBytes, "svc", "aud",
		source.WithLifetime(10*time.Minute))
	require.NoError(t, err)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), token.Expiry, time.Minute)
}

func TestJWTAccess_CacheKey(t *testing.T) {
	_, pemBytes := testSigningKey(t)

	s, err := source.NewJWTAccess(pemBytes, "svc@example.com", "https://api.example.com")
	require.NoError(t, err)

	assert.Equal(t, "jwtaccess://svc@example.com/https://api.example.com", s.CacheKey())
}
