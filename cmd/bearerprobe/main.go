// bearerprobe issues a single authorized HTTP request using a configured
// token source and cache. It exists to validate source definitions and
// cache connectivity from the command line before an application takes
// them to production.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/chinmina/bearerauth"
	"github.com/chinmina/bearerauth/cache"
	"github.com/chinmina/bearerauth/observe"
	"github.com/chinmina/bearerauth/source"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// URL is the target of the probe request.
	URL string `env:"PROBE_URL, required"`

	// Method is the HTTP method for the probe request.
	Method string `env:"PROBE_METHOD, default=GET"`

	// SourcesFile is the path to the YAML source definition document.
	SourcesFile string `env:"PROBE_SOURCES_FILE, required"`

	// Source names the definition to probe with.
	Source string `env:"PROBE_SOURCE, required"`

	Cache   cache.Config
	Observe observe.Config
}

func main() {
	configureLogging()

	logBuildInfo()

	if err := run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("probe failed")
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(ctx); err != nil {
			log.Warn().Err(err).Msg("telemetry: shutdown failed")
		}
	}()

	data, err := os.ReadFile(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("reading source definitions: %w", err)
	}

	sources, err := source.LoadConfig(data)
	if err != nil {
		return fmt.Errorf("source configuration failed: %w", err)
	}

	definition, err := sources.Lookup(cfg.Source)
	if err != nil {
		return err
	}

	base := observe.HTTPTransport(http.DefaultTransport, cfg.Observe)

	tokenSource, err := definition.Build(ctx, base)
	if err != nil {
		return fmt.Errorf("token source configuration failed: %w", err)
	}

	tokenCache, err := cache.NewFromConfig(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("token cache configuration failed: %w", err)
	}
	defer func() {
		if err := tokenCache.Close(); err != nil {
			log.Warn().Err(err).Msg("cache: close failed")
		}
	}()

	transport := bearerauth.NewTransport(tokenSource,
		bearerauth.WithCache(tokenCache, bearerauth.CacheConfig{
			Lifetime:  time.Duration(cfg.Cache.LifetimeSeconds) * time.Second,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}),
		bearerauth.WithBase(base),
	)

	client := &http.Client{Transport: transport}

	reqCtx := bearerauth.WithMode(ctx, bearerauth.ModeFetchToken)
	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	// the body is drained so the connection can be reused, but its content
	// is of no interest
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Info().
		Str("source", cfg.Source).
		Str("url", cfg.URL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("probe complete")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("authorization rejected with status %d", resp.StatusCode)
	}

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to
	// be configured separately. However, it means that any logger that sets
	// its level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}
