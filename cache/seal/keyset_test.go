package seal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
)

type failingSecrets struct {
	err error
}

func (f failingSecrets) GetSecretValue(context.Context, *secretsmanager.GetSecretValueInput, ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return nil, f.err
}

func writeTestKeyset(t *testing.T) string {
	t.Helper()

	handle, err := keyset.NewHandle(aead.AES256GCMKeyTemplate())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keyset.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, insecurecleartextkeyset.Write(handle, keyset.NewJSONWriter(f)))
	return path
}

func TestNewAEADFromFile(t *testing.T) {
	s, err := NewAEADFromFile(writeTestKeyset(t))
	require.NoError(t, err)

	ctx := context.Background()
	sealed, err := s.Seal(ctx, "k", "token-value")
	require.NoError(t, err)

	token, err := s.Open(ctx, "k", sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", token)
}

func TestNewAEADFromFile_Missing(t *testing.T) {
	_, err := NewAEADFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "opening keyset file")
}

func TestNewAEADFromKMS_RejectsBadKeysetURI(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		uri  string
	}{
		{"wrong scheme", "s3://bucket/keyset"},
		{"empty secret name", "aws-secretsmanager://"},
		{"empty URI", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newAEADFromKMS(ctx, tc.uri, "aws-kms://arn:aws:kms:us-east-1:000000000000:key/test", nil)
			assert.ErrorContains(t, err, "keyset URI")
		})
	}
}

func TestNewAEADFromKMS_RejectsBadKMSURI(t *testing.T) {
	_, err := newAEADFromKMS(context.Background(), "aws-secretsmanager://keyset", "not-a-kms-uri", nil)
	assert.Error(t, err)
}

func TestNewAEADFromKMS_SecretReadFailure(t *testing.T) {
	api := failingSecrets{err: errors.New("access denied")}

	_, err := newAEADFromKMS(context.Background(), "aws-secretsmanager://keyset",
		"aws-kms://arn:aws:kms:us-east-1:000000000000:key/00000000-0000-0000-0000-000000000000", api)
	assert.Error(t, err)
}
