// Package tracing provides OpenTelemetry tracing for subagent resolution.
//
// It exports spans for configuration source loads and profile resolutions.
// Every span is a no-op until Init has been called with an endpoint.
package tracing

import (
	"cmp"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer.
const TracerName = "crush-subagents"

// Exporter protocols recorded on the resource.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

var (
	mu       sync.RWMutex
	initOnce sync.Once
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
)

// Config holds the configuration for tracing.
type Config struct {
	// Endpoint is the OTLP endpoint: host:port for gRPC (e.g., "localhost:4317")
	// or an http(s) URL for OTLP/HTTP.
	Endpoint string
	// ServiceName is the name of the service reported to the collector.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Insecure disables TLS for gRPC endpoints. HTTP endpoints take it from
	// the URL scheme.
	Insecure bool
}

// Protocol returns the OTLP protocol used for the endpoint.
func (c Config) Protocol() string {
	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return ProtocolHTTP
	}
	return ProtocolGRPC
}

// Init initializes the OpenTelemetry tracer with the given configuration.
// Only the first call has an effect. If the endpoint is empty or the
// exporter cannot be created, tracing stays disabled.
func Init(cfg Config) error {
	var initErr error
	initOnce.Do(func() {
		if cfg.Endpoint == "" {
			slog.Debug("Tracing disabled: no endpoint configured")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		exporter, err := newExporter(ctx, cfg)
		if err != nil {
			slog.Warn("Failed to create OTLP exporter", "endpoint", cfg.Endpoint, "error", err)
			initErr = err
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(newResource(ctx, cfg)),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)

		mu.Lock()
		provider = tp
		tracer = tp.Tracer(TracerName)
		mu.Unlock()

		slog.Info("Tracing initialized", "endpoint", cfg.Endpoint, "protocol", cfg.Protocol())
	})
	return initErr
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.Protocol() == ProtocolHTTP {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

// newResource describes this process and the exporter it reports through.
func newResource(ctx context.Context, cfg Config) *resource.Resource {
	name := cmp.Or(cfg.ServiceName, TracerName)
	version := cmp.Or(cfg.ServiceVersion, "unknown")

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
			attribute.String("telemetry.exporter.protocol", cfg.Protocol()),
			attribute.Bool("telemetry.exporter.insecure", cfg.Insecure && cfg.Protocol() == ProtocolGRPC),
		),
	)
	if err != nil {
		// Partial resources are still usable; only detection failed.
		slog.Debug("Incomplete tracing resource", "error", err)
	}
	return res
}

// Shutdown flushes pending spans and stops the tracer provider.
func Shutdown(ctx context.Context) error {
	mu.RLock()
	tp := provider
	mu.RUnlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Enabled returns true if tracing is initialized.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return provider != nil
}

func currentTracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// ResolveSpan represents an active profile resolution span.
type ResolveSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartResolve starts a span for resolving the profile of a subagent.
func StartResolve(ctx context.Context, id, modelPattern string) *ResolveSpan {
	if !Enabled() {
		return &ResolveSpan{ctx: ctx}
	}

	ctx, span := currentTracer().Start(ctx, "subagent.resolve",
		trace.WithAttributes(
			attribute.String("subagent.id", id),
			attribute.String("subagent.model_pattern", modelPattern),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return &ResolveSpan{
		span: span,
		ctx:  ctx,
	}
}

// End ends the resolve span.
func (r *ResolveSpan) End() {
	if r.span != nil {
		r.span.End()
	}
}

// SetResult records the outcome of the resolution.
func (r *ResolveSpan) SetResult(variantPattern, promptSource string, sources []string) {
	if r.span != nil {
		r.span.SetAttributes(
			attribute.String("subagent.variant", variantPattern),
			attribute.String("subagent.prompt_source", promptSource),
			attribute.StringSlice("subagent.sources", sources),
		)
	}
}

// Context returns the context with the resolve span.
func (r *ResolveSpan) Context() context.Context {
	return r.ctx
}

// LoadSpan represents an active configuration document load span.
type LoadSpan struct {
	span trace.Span
}

// StartLoad starts a span for loading one configuration source.
func StartLoad(ctx context.Context, source, path string) *LoadSpan {
	if !Enabled() {
		return &LoadSpan{}
	}

	_, span := currentTracer().Start(ctx, "config.load."+source,
		trace.WithAttributes(
			attribute.String("config.source", source),
			attribute.String("config.path", clip(path, maxPathLen)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return &LoadSpan{span: span}
}

// End ends the load span.
func (l *LoadSpan) End() {
	if l.span != nil {
		l.span.End()
	}
}

// SetError sets an error on the load span.
func (l *LoadSpan) SetError(err error) {
	if l.span != nil {
		l.span.RecordError(err)
		l.span.SetStatus(codes.Error, err.Error())
	}
}

// SetLoaded records whether the source contributed a document.
func (l *LoadSpan) SetLoaded(loaded bool, bytes int) {
	if l.span != nil {
		l.span.SetAttributes(
			attribute.Bool("config.loaded", loaded),
			attribute.Int("config.bytes", bytes),
		)
	}
}

// maxPathLen bounds path attributes.
const maxPathLen = 500

// clip shortens s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
