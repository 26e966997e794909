package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/chinmina/bearerauth/cache/seal"
	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// NewFromConfig creates a cache backend based on the provided
// configuration, wrapped with metrics instrumentation.
//
// The cache type must be either "memory" or "valkey". Any other value
// returns an error. For "valkey", cfg.Valkey.Address must be provided.
func NewFromConfig(ctx context.Context, cfg Config) (*Instrumented, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	ttl := time.Duration(cfg.LifetimeSeconds) * time.Second

	switch cfg.Type {
	case "valkey":
		log.Info().
			Str("cache_type", "valkey").
			Str("address", cfg.Valkey.Address).
			Bool("tls", cfg.Valkey.TLS).
			Bool("iam_enabled", cfg.Valkey.IAMEnabled).
			Msg("initializing distributed token cache")

		auth, err := newValkeyAuth(ctx, cfg.Valkey)
		if err != nil {
			return nil, fmt.Errorf("configuring valkey authentication: %w", err)
		}

		valkeyOpts := valkey.ClientOption{
			InitAddress:       []string{cfg.Valkey.Address},
			AuthCredentialsFn: auth.credentials,
			ConnLifetime:      auth.connLifetime,
		}

		if cfg.Valkey.TLS {
			valkeyOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		valkeyClient, err := valkey.NewClient(valkeyOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey client: %w", err)
		}

		var sealer seal.Sealer
		if cfg.Encryption.Enabled {
			var a *seal.AEAD
			var err error

			switch {
			case cfg.Encryption.KeysetFile != "":
				a, err = seal.NewAEADFromFile(cfg.Encryption.KeysetFile)
			default:
				a, err = seal.NewAEADFromKMS(ctx, cfg.Encryption.KeysetURI, cfg.Encryption.KMSEnvelopeKeyURI)
			}
			if err != nil {
				valkeyClient.Close()
				return nil, fmt.Errorf("initializing token sealing: %w", err)
			}
			sealer = seal.NewInstrumented(a)

			log.Info().Msg("token cache encryption enabled")
		}

		distributed, err := NewValkey(valkeyClient, ttl, sealer)
		if err != nil {
			if sealer != nil {
				_ = sealer.Close()
			}
			valkeyClient.Close()
			return nil, fmt.Errorf("failed to create distributed cache: %w", err)
		}

		return NewInstrumented(distributed, "valkey"), nil

	case "memory":
		log.Info().
			Str("cache_type", "memory").
			Msg("initializing in-memory token cache")

		memory, err := NewMemory(ttl, cfg.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}

		return NewInstrumented(memory, "memory"), nil

	default:
		return nil, fmt.Errorf("invalid cache type %q: must be either \"memory\" or \"valkey\"", cfg.Type)
	}
}
