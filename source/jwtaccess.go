package source

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/chinmina/bearerauth"
	"github.com/golang-jwt/jwt/v4"
)

// JWTAccess produces a locally-signed RS256 JWT used directly as the
// bearer credential. No network fetch is involved: services that accept
// self-signed JWTs (issuer pinned to a registered public key) can be
// called without a token endpoint round trip.
//
// The IssuedAt claim is backdated by 60 seconds to account for clock
// drift between systems.
type JWTAccess struct {
	signingKey *rsa.PrivateKey
	keyID      string
	issuer     string
	audience   string
	lifetime   time.Duration
}

// JWTAccessOption configures a JWTAccess source.
type JWTAccessOption func(*JWTAccess)

// WithKeyID sets the "kid" header on signed tokens.
func WithKeyID(keyID string) JWTAccessOption {
	return func(s *JWTAccess) {
		s.keyID = keyID
	}
}

// WithLifetime sets the token validity period. Defaults to one hour.
func WithLifetime(lifetime time.Duration) JWTAccessOption {
	return func(s *JWTAccess) {
		s.lifetime = lifetime
	}
}

// NewJWTAccess creates a source signing tokens with the given PEM-encoded
// RSA private key. The issuer is used for both the "iss" and "sub" claims;
// the audience names the service the token is intended for.
func NewJWTAccess(privateKeyPEM []byte, issuer, audience string, opts ...JWTAccessOption) (*JWTAccess, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing signing key: %w", err)
	}

	s := &JWTAccess{
		signingKey: key,
		issuer:     issuer,
		audience:   audience,
		lifetime:   time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *JWTAccess) Token(_ context.Context) (bearerauth.Token, error) {
	now := time.Now()
	expiry := now.Add(s.lifetime)

	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return bearerauth.Token{}, fmt.Errorf("signing JWT: %w", err)
	}

	return bearerauth.Token{
		AccessToken: signed,
		Expiry:      expiry,
	}, nil
}

// CacheKey namespaces by issuer and audience: a cached token is only
// reused for the audience it was signed for.
func (s *JWTAccess) CacheKey() string {
	return fmt.Sprintf("jwtaccess://%s/%s", s.issuer, s.audience)
}
