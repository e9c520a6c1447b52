package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/s3fm/logger"
)

// instrumentationName scopes every span the service starts.
const instrumentationName = "github.com/kbukum/s3fm"

// Span names.
const (
	SpanHTTPRequest       = "http.request"
	SpanFileManagerPrefix = "filemanager."
)

// Span attribute keys.
const (
	AttrServiceName   = "service.name"
	AttrOperationName = "operation.name"
	AttrRequestID     = "request.id"
	AttrUserID        = "user.id"
	AttrDurationMs    = "duration_ms"
	AttrStatus        = "status"
	AttrErrorMessage  = "error.message"
	AttrBucket        = "s3.bucket"
	AttrPath          = "s3fm.path"
)

// TracerConfig holds the exporter and resource settings for InitTracer.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is an OTLP/HTTP collector address without scheme, e.g. "otel:4318".
	Endpoint string
	Insecure bool
	// SampleRate between 0 and 1; values outside the range clamp to never/always.
	SampleRate float64
}

// DefaultTracerConfig points at a local collector and samples everything.
func DefaultTracerConfig(serviceName string) TracerConfig {
	return TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

func (c TracerConfig) exporterOptions() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.Endpoint)}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func (c TracerConfig) sampler() sdktrace.Sampler {
	if c.SampleRate <= 0 {
		return sdktrace.NeverSample()
	}
	if c.SampleRate >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRate))
}

// serviceResource describes the service. Schemaless attributes merge onto
// the SDK default without a schema URL conflict.
func serviceResource(name, version, environment string) (*resource.Resource, error) {
	service := resource.NewSchemaless(
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
		attribute.String("environment", environment),
	)
	return resource.Merge(resource.Default(), service)
}

// InitTracer registers a batching OTLP/HTTP tracer provider and the W3C
// propagators globally. Shutting the provider down is up to the caller.
func InitTracer(ctx context.Context, cfg TracerConfig, log *logger.Logger) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, cfg.exporterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if log != nil {
		log.Info("tracing enabled", map[string]interface{}{
			logger.FieldService: cfg.ServiceName,
			"endpoint":          cfg.Endpoint,
			"sample_rate":       cfg.SampleRate,
		})
	}
	return provider, nil
}

// StartSpan starts a span on the service tracer of the current global provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// SetSpanAttribute annotates the span in ctx. Unsupported value types are
// dropped.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if kv, ok := toAttribute(key, value); ok {
		span.SetAttributes(kv)
	}
}

// SetSpanError records err on the span in ctx, if any.
func SetSpanError(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}
}

func toAttribute(key string, value any) (attribute.KeyValue, bool) {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v), true
	case bool:
		return k.Bool(v), true
	case int:
		return k.Int(v), true
	case int64:
		return k.Int64(v), true
	case []string:
		return k.StringSlice(v), true
	default:
		return attribute.KeyValue{}, false
	}
}
