package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chinmina/bearerauth/cache/seal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestNewValkey_NilSealerStoresCleartext(t *testing.T) {
	c, err := NewValkey(nil, 5*time.Minute, nil)
	require.NoError(t, err)

	assert.IsType(t, seal.Cleartext{}, c.sealer)
}

func TestNewValkey_WithSealer(t *testing.T) {
	s, err := seal.NewInsecureTestAEAD()
	require.NoError(t, err)

	c, err := NewValkey(nil, 5*time.Minute, s)
	require.NoError(t, err)

	assert.Same(t, s, c.sealer)
}

func TestValkeyGet_Hit(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		DoCache(gomock.Any(), mock.Match("GET", "profile/default"), 5*time.Minute).
		Return(mock.Result(mock.ValkeyString("token-value")))

	token, found, err := c.Get(context.Background(), "profile/default", 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token-value", token)
}

func TestValkeyGet_MissIsNotAnError(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		DoCache(gomock.Any(), mock.Match("GET", "profile/default"), 5*time.Minute).
		Return(mock.Result(mock.ValkeyNil()))

	token, found, err := c.Get(context.Background(), "profile/default", 0)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, token)
}

// The per-read lifetime hint bounds the client-side caching window; the
// configured TTL applies only when no hint is given.
func TestValkeyGet_LifetimeHintBoundsClientSideCaching(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		DoCache(gomock.Any(), mock.Match("GET", "profile/default"), 90*time.Second).
		Return(mock.Result(mock.ValkeyString("token-value")))

	_, found, err := c.Get(context.Background(), "profile/default", 90*time.Second)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestValkeyGet_ServerError(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		DoCache(gomock.Any(), mock.Match("GET", "profile/default"), 5*time.Minute).
		Return(mock.ErrorResult(errors.New("connection refused")))

	_, found, err := c.Get(context.Background(), "profile/default", 0)
	assert.ErrorContains(t, err, "failed to get cached value")
	assert.False(t, found)
}

// A stored value that fails to open is reported as an error, and the
// corrupt entry is removed so the next read misses cleanly.
func TestValkeyGet_CorruptEntryInvalidated(t *testing.T) {
	sealer, err := seal.NewInsecureTestAEAD()
	require.NoError(t, err)

	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, sealer)
	require.NoError(t, err)

	client.EXPECT().
		DoCache(gomock.Any(), mock.Match("GET", "sealed:profile/default"), 5*time.Minute).
		Return(mock.Result(mock.ValkeyString("not-a-sealed-value")))
	client.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "sealed:profile/default")).
		Return(mock.Result(mock.ValkeyInt64(1)))

	_, found, err := c.Get(context.Background(), "profile/default", 0)
	assert.ErrorContains(t, err, "opening cached value")
	assert.False(t, found)
}

func TestValkeySet_StoresWithTTL(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "profile/default", "token-value", "EX", "300")).
		Return(mock.Result(mock.ValkeyString("OK")))

	err = c.Set(context.Background(), "profile/default", "token-value")
	assert.NoError(t, err)
}

func TestValkeySet_SealedValueStored(t *testing.T) {
	sealer, err := seal.NewInsecureTestAEAD()
	require.NoError(t, err)

	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, sealer)
	require.NoError(t, err)

	client.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return len(cmd) == 5 &&
				cmd[0] == "SET" &&
				cmd[1] == "sealed:profile/default" &&
				strings.HasPrefix(cmd[2], "sealed.v1.") &&
				cmd[3] == "EX" &&
				cmd[4] == "300"
		}, "SET of a sealed value")).
		Return(mock.Result(mock.ValkeyString("OK")))

	err = c.Set(context.Background(), "profile/default", "token-value")
	assert.NoError(t, err)
}

func TestValkeySet_ServerError(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "profile/default", "token-value", "EX", "300")).
		Return(mock.ErrorResult(errors.New("READONLY")))

	err = c.Set(context.Background(), "profile/default", "token-value")
	assert.ErrorContains(t, err, "failed to set cached value")
}

func TestValkeyInvalidate(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "profile/default")).
		Return(mock.Result(mock.ValkeyInt64(1)))

	assert.NoError(t, c.Invalidate(context.Background(), "profile/default"))
}

func TestValkeyClose(t *testing.T) {
	client := mock.NewClient(gomock.NewController(t))
	c, err := NewValkey(client, 5*time.Minute, nil)
	require.NoError(t, err)

	client.EXPECT().Close()

	assert.NoError(t, c.Close())
}
