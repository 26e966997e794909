package source_test

import (
	"context"
	"testing"

	"github.com/chinmina/bearerauth/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Token(t *testing.T) {
	s := source.Static{AccessToken: "pat-token"}

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pat-token", token.AccessToken)
	assert.True(t, token.Expiry.IsZero())
}

func TestStatic_CacheKey(t *testing.T) {
	assert.Empty(t, source.Static{AccessToken: "t"}.CacheKey())
	assert.Equal(t, "pat", source.Static{AccessToken: "t", Key: "pat"}.CacheKey())
}
