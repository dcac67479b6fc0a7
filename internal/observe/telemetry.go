package observe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// scopeName is the instrumentation scope of every enunciate meter and tracer.
const scopeName = "github.com/MrWong99/enunciate"

// ServiceInfo identifies the server process in scraped metrics.
type ServiceInfo struct {
	// Name is reported as service.name. Default: "enunciate".
	Name    string
	Version string
}

// Telemetry owns the OpenTelemetry providers of one server process.
//
// Metrics are collected into a private Prometheus registry and served by
// [Telemetry.Handler]. Spans are recorded but not exported: their trace IDs
// become the correlation IDs in response headers, error bodies and logs.
type Telemetry struct {
	registry *prometheus.Registry
	meters   *sdkmetric.MeterProvider
	tracers  *sdktrace.TracerProvider
	metrics  *Metrics

	shutdownOnce sync.Once
	shutdownErr  error
}

// Setup builds the providers and the [Metrics] instruments. Nothing is
// registered globally until [Telemetry.Install].
func Setup(ctx context.Context, info ServiceInfo) (*Telemetry, error) {
	if info.Name == "" {
		info.Name = "enunciate"
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(info.Name)}
	if info.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(info.Version))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...), resource.WithTelemetrySDK())
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exp))
	m, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	return &Telemetry{
		registry: reg,
		meters:   mp,
		tracers:  sdktrace.NewTracerProvider(sdktrace.WithResource(res)),
		metrics:  m,
	}, nil
}

// Metrics returns the instruments bound to this telemetry's meter provider.
func (t *Telemetry) Metrics() *Metrics { return t.metrics }

// TracerProvider is the provider [Middleware] should start request spans on.
func (t *Telemetry) TracerProvider() trace.TracerProvider { return t.tracers }

// Handler serves the registry in the Prometheus text format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Install makes t the process-wide OpenTelemetry provider, so spans started
// with [StartSpan] outside the middleware join the request trace.
func (t *Telemetry) Install() {
	otel.SetMeterProvider(t.meters)
	otel.SetTracerProvider(t.tracers)
}

// Shutdown flushes and stops both providers. Later calls return the first
// result.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.shutdownErr = errors.Join(t.meters.Shutdown(ctx), t.tracers.Shutdown(ctx))
	})
	return t.shutdownErr
}

// ─── Spans and correlation ──────────────────────────────────────────────────

// StartSpan starts a span on the global tracer provider. The caller must end
// it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(scopeName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// CorrelationID is the trace ID of the span in ctx, or "" without one. API
// error bodies carry it so a learner's report can be matched to the log.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger, tagged with the correlation ID when ctx
// carries a span.
func Logger(ctx context.Context) *slog.Logger {
	if cid := CorrelationID(ctx); cid != "" {
		return slog.Default().With(slog.String("correlation_id", cid))
	}
	return slog.Default()
}
