package seal

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce    sync.Once
	sealOperations metric.Int64Counter
	sealDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/chinmina/bearerauth/cache/seal")

		var err error
		sealOperations, err = meter.Int64Counter(
			"tokencache.seal.operations",
			metric.WithDescription("Seal and open operations on cached tokens"),
		)
		if err != nil {
			otel.Handle(err)
		}

		sealDuration, err = meter.Float64Histogram(
			"tokencache.seal.duration",
			metric.WithDescription("Duration of seal and open operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented records OTel metrics for each seal and open operation,
// delegating the work to the wrapped Sealer.
type Instrumented struct {
	wrapped Sealer
}

func NewInstrumented(wrapped Sealer) *Instrumented {
	initMetrics()
	return &Instrumented{wrapped: wrapped}
}

func (i *Instrumented) Seal(ctx context.Context, key string, token string) (string, error) {
	start := time.Now()
	sealed, err := i.wrapped.Seal(ctx, key, token)
	record(ctx, "seal", time.Since(start), err)
	return sealed, err
}

func (i *Instrumented) Open(ctx context.Context, key string, sealed string) (string, error) {
	start := time.Now()
	token, err := i.wrapped.Open(ctx, key, sealed)
	record(ctx, "open", time.Since(start), err)
	return token, err
}

func (i *Instrumented) StorageKey(key string) string {
	return i.wrapped.StorageKey(key)
}

func (i *Instrumented) Close() error {
	return i.wrapped.Close()
}

func record(ctx context.Context, operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}

	attrs := metric.WithAttributes(
		attribute.String("seal.operation", operation),
		attribute.String("seal.outcome", outcome),
	)
	if sealOperations != nil {
		sealOperations.Add(ctx, 1, attrs)
	}
	if sealDuration != nil {
		sealDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
