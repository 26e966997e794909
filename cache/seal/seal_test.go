package seal

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleartext_PassThrough(t *testing.T) {
	ctx := context.Background()
	s := Cleartext{}

	sealed, err := s.Seal(ctx, "profile/default", "token-value")
	require.NoError(t, err)
	assert.Equal(t, "token-value", sealed)

	token, err := s.Open(ctx, "profile/default", sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", token)

	assert.Equal(t, "profile/default", s.StorageKey("profile/default"))
	assert.NoError(t, s.Close())
}

func TestAEAD_SealOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	sealed, err := s.Seal(ctx, "profile/default", "token-value")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, valuePrefix))
	assert.NotContains(t, sealed, "token-value")

	token, err := s.Open(ctx, "profile/default", sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", token)
}

func TestAEAD_OpenRejectsUnsealedValue(t *testing.T) {
	s, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "profile/default", "raw-token-value")
	assert.ErrorContains(t, err, "not a sealed token")
}

func TestAEAD_OpenRejectsCorruptEncoding(t *testing.T) {
	s, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "profile/default", valuePrefix+"!!not-base64!!")
	assert.ErrorContains(t, err, "decoding sealed token")
}

// A value sealed for one cache entry must not open under another: the
// associated data binds the ciphertext to its key.
func TestAEAD_SealedValueBoundToKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	sealed, err := s.Seal(ctx, "profile/default", "token-value")
	require.NoError(t, err)

	_, err = s.Open(ctx, "profile/other", sealed)
	assert.ErrorContains(t, err, "opening sealed token")
}

func TestAEAD_StorageKey(t *testing.T) {
	s, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	tests := []struct {
		key  string
		want string
	}{
		{"profile/default", "sealed:profile/default"},
		{"", "sealed:"},
		{"a:b:c", "sealed:a:b:c"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, s.StorageKey(tc.key))
	}
}

func TestInstrumented_Delegates(t *testing.T) {
	ctx := context.Background()
	inner, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	s := NewInstrumented(inner)

	sealed, err := s.Seal(ctx, "profile/default", "token-value")
	require.NoError(t, err)

	token, err := s.Open(ctx, "profile/default", sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", token)

	assert.Equal(t, inner.StorageKey("k"), s.StorageKey("k"))
	assert.NoError(t, s.Close())
}

func TestInstrumented_PropagatesFailure(t *testing.T) {
	inner, err := NewInsecureTestAEAD()
	require.NoError(t, err)

	s := NewInstrumented(inner)

	_, err = s.Open(context.Background(), "profile/default", "not-sealed")
	assert.Error(t, err)
}
