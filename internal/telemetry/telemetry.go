// Package telemetry installs the OpenTelemetry tracer provider used by the
// orchestrator and the action engine.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures tracing. An empty OTLPEndpoint keeps spans in process:
// they are sampled and handed to SpanProcessors but never exported.
type Config struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	Insecure     bool
	SampleRate   float64
	BatchTimeout time.Duration

	// SpanProcessors are registered in addition to the OTLP batcher.
	SpanProcessors []sdktrace.SpanProcessor

	Logger *logrus.Logger
}

// Provider owns the installed tracer provider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger *logrus.Logger
}

// Setup builds a tracer provider from cfg and installs it as the global
// provider together with the W3C trace-context propagator.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cardano-adaptive-ui"
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}

	// schemaless so the merge never conflicts with the SDK default schema
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(Sampler(cfg.SampleRate))),
	}
	for _, sp := range cfg.SpanProcessors {
		opts = append(opts, sdktrace.WithSpanProcessor(sp))
	}

	if cfg.OTLPEndpoint != "" {
		exOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			exOpts = append(exOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cfg.Logger.WithFields(logrus.Fields{
		"service":     cfg.ServiceName,
		"endpoint":    cfg.OTLPEndpoint,
		"sample_rate": cfg.SampleRate,
	}).Info("Tracing initialized")

	return &Provider{tp: tp, logger: cfg.Logger}, nil
}

// Sampler maps a rate in [0, 1] to a sampler.
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// TracerProvider returns the installed provider.
func (p *Provider) TracerProvider() *sdktrace.TracerProvider { return p.tp }

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
