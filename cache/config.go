package cache

import "fmt"

// Config specifies cache backend configuration. Fields may be populated
// from the environment (envconfig tags) or from a YAML document.
type Config struct {
	// Type selects the cache implementation: "memory" (default) or "valkey".
	Type string `env:"CACHE_TYPE, default=memory" yaml:"type"`

	// LifetimeSeconds is the time-to-live for cached tokens, in seconds.
	LifetimeSeconds int `env:"CACHE_LIFETIME_SECS, default=1500" yaml:"lifetimeSeconds"`

	// KeyPrefix namespaces cache entries shared with other applications.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" yaml:"keyPrefix"`

	// MaxEntries bounds the in-memory cache. Ignored by the valkey backend.
	MaxEntries int `env:"CACHE_MAX_ENTRIES, default=10000" yaml:"maxEntries"`

	// Valkey holds distributed cache settings.
	Valkey ValkeyConfig `yaml:"valkey"`

	// Encryption holds at-rest encryption settings.
	// Only supported with the valkey cache type.
	Encryption EncryptionConfig `yaml:"encryption"`
}

// ValkeyConfig specifies distributed cache configuration.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS" yaml:"address"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure
	// option is the default.
	TLS bool `env:"VALKEY_TLS, default=true" yaml:"tls"`

	// Username for Valkey authentication.
	Username string `env:"VALKEY_USERNAME" yaml:"username"`

	// Password for Valkey authentication.
	Password string `env:"VALKEY_PASSWORD" yaml:"password"`

	// IAMEnabled switches authentication to AWS IAM tokens instead of a
	// static password.
	IAMEnabled bool `env:"VALKEY_IAM_ENABLED, default=false" yaml:"iamEnabled"`

	// IAMCacheName is the ElastiCache replication group or serverless cache
	// name used when IAM authentication is enabled.
	IAMCacheName string `env:"VALKEY_IAM_CACHE_NAME" yaml:"iamCacheName"`

	// IAMServerless indicates the target is an ElastiCache Serverless cache.
	IAMServerless bool `env:"VALKEY_IAM_SERVERLESS, default=false" yaml:"iamServerless"`
}

// EncryptionConfig holds settings for at-rest encryption of cached tokens.
type EncryptionConfig struct {
	// Enabled turns on encryption for cached tokens.
	// Requires CACHE_TYPE=valkey.
	Enabled bool `env:"CACHE_ENCRYPTION_ENABLED, default=false" yaml:"enabled"`

	// KeysetURI is the URI to the encrypted Tink keyset.
	// Format: aws-secretsmanager://secret-name
	KeysetURI string `env:"CACHE_ENCRYPTION_KEYSET_URI" yaml:"keysetURI"`

	// KeysetFile is a local path to a cleartext Tink keyset, for
	// development use. Mutually exclusive with KeysetURI.
	KeysetFile string `env:"CACHE_ENCRYPTION_KEYSET_FILE" yaml:"keysetFile"`

	// KMSEnvelopeKeyURI is the AWS KMS key URI used to decrypt the keyset.
	// Format: aws-kms://arn:aws:kms:region:account:key/key-id
	KMSEnvelopeKeyURI string `env:"CACHE_ENCRYPTION_KMS_ENVELOPE_KEY_URI" yaml:"kmsEnvelopeKeyURI"`
}

// Validate checks that the cache configuration is valid.
func (c *Config) Validate() error {
	// Encryption requires distributed cache
	if c.Encryption.Enabled && c.Type != "valkey" {
		return fmt.Errorf("cache encryption requires CACHE_TYPE=valkey")
	}

	if c.Encryption.Enabled && c.Encryption.KeysetFile == "" {
		if c.Encryption.KeysetURI == "" {
			return fmt.Errorf("CACHE_ENCRYPTION_KEYSET_URI required when encryption enabled")
		}
		if c.Encryption.KMSEnvelopeKeyURI == "" {
			return fmt.Errorf("CACHE_ENCRYPTION_KMS_ENVELOPE_KEY_URI required when encryption enabled")
		}
	}

	// Valkey requires address
	if c.Type == "valkey" && c.Valkey.Address == "" {
		return fmt.Errorf("VALKEY_ADDRESS required when CACHE_TYPE=valkey")
	}

	if c.Valkey.IAMEnabled && c.Valkey.IAMCacheName == "" {
		return fmt.Errorf("VALKEY_IAM_CACHE_NAME required when IAM auth enabled")
	}

	return nil
}
