package seal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tink-crypto/tink-go-awskms/v3/integration/awskms"
	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
)

const secretsManagerScheme = "aws-secretsmanager://"

// secretsAPI is the slice of the Secrets Manager client the keyset
// loader needs.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewAEADFromKMS builds a sealer from an encrypted Tink keyset held in
// AWS Secrets Manager. The KMS envelope key unwraps the keyset once at
// startup; sealing and opening are local operations afterwards.
//
// keysetURI uses the aws-secretsmanager://secret-name scheme, kmsKeyURI
// the aws-kms://arn:... scheme.
func NewAEADFromKMS(ctx context.Context, keysetURI, kmsKeyURI string) (*AEAD, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newAEADFromKMS(ctx, keysetURI, kmsKeyURI, secretsmanager.NewFromConfig(awsCfg))
}

func newAEADFromKMS(ctx context.Context, keysetURI, kmsKeyURI string, api secretsAPI) (*AEAD, error) {
	secretName, ok := strings.CutPrefix(keysetURI, secretsManagerScheme)
	if !ok || secretName == "" {
		return nil, fmt.Errorf("keyset URI %q must be of the form %s<secret-name>", keysetURI, secretsManagerScheme)
	}

	envelope, err := awskms.NewAEADWithContext(ctx, kmsKeyURI)
	if err != nil {
		return nil, fmt.Errorf("creating envelope AEAD for %q: %w", kmsKeyURI, err)
	}

	secret, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("reading keyset secret %q: %w", secretName, err)
	}
	if secret.SecretString == nil {
		return nil, fmt.Errorf("keyset secret %q has no string value", secretName)
	}

	reader := keyset.NewJSONReader(strings.NewReader(*secret.SecretString))
	handle, err := keyset.ReadWithContext(ctx, reader, envelope, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping keyset: %w", err)
	}

	return newFromHandle(handle)
}

// NewAEADFromFile builds a sealer from a cleartext keyset on disk. For
// development use only: the keyset file protects nothing.
func NewAEADFromFile(path string) (*AEAD, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keyset file: %w", err)
	}
	defer f.Close()

	handle, err := insecurecleartextkeyset.Read(keyset.NewJSONReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading keyset file %q: %w", path, err)
	}

	return newFromHandle(handle)
}

// NewInsecureTestAEAD builds a sealer over a freshly generated AES-256-GCM
// keyset. The keyset is never persisted; test use only.
func NewInsecureTestAEAD() (*AEAD, error) {
	handle, err := keyset.NewHandle(aead.AES256GCMKeyTemplate())
	if err != nil {
		return nil, fmt.Errorf("generating keyset: %w", err)
	}
	return newFromHandle(handle)
}

func newFromHandle(handle *keyset.Handle) (*AEAD, error) {
	primitive, err := aead.New(handle)
	if err != nil {
		return nil, fmt.Errorf("building AEAD primitive: %w", err)
	}
	return NewAEAD(primitive)
}
