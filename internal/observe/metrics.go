// Package observe holds the telemetry of the enunciate server: scoring and
// practice metrics, request spans whose trace IDs serve as correlation IDs,
// and the HTTP middleware that ties them together.
//
// A server builds everything with [Setup] and scrapes [Telemetry.Handler].
// Code that has no [Telemetry] falls back to [DefaultMetrics] on the global
// meter provider; tests use [NewMetrics] with a manual reader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

var _ scoring.Observer = (*Metrics)(nil)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Scoring ---

	// FinalScore tracks the distribution of fused accuracy scores. Use with
	// attributes:
	//   attribute.String("tier", ...), attribute.String("speech_source", ...)
	FinalScore metric.Int64Histogram

	// ScorerFaults counts sub-scorer failures that were replaced by a
	// fallback value. Use with attribute:
	//   attribute.String("scorer", ...)
	ScorerFaults metric.Int64Counter

	// --- Transcription ---

	// STTDuration tracks server-side speech-to-text latency.
	STTDuration metric.Float64Histogram

	// ProviderRequests counts transcription provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts transcription provider errors.
	ProviderErrors metric.Int64Counter

	// --- Practice ---

	// Recordings counts recordings submitted for scoring.
	Recordings metric.Int64Counter

	// ActiveSessions tracks the number of open practice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// LiveConnections tracks the number of open live recognition sockets.
	LiveConnections metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// transcription latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15,
}

// scoreBuckets matches the tier boundaries so that dashboards can read tier
// shares straight from the histogram.
var scoreBuckets = []float64{10, 25, 50, 60, 70, 80, 85, 90, 95, 100}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &Metrics{}

	if met.FinalScore, err = m.Int64Histogram("enunciate.score.final",
		metric.WithDescription("Fused pronunciation accuracy of scored recordings."),
		metric.WithUnit("{score}"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScorerFaults, err = m.Int64Counter("enunciate.scorer.faults",
		metric.WithDescription("Sub-scorer failures replaced by a fallback score."),
	); err != nil {
		return nil, err
	}

	if met.STTDuration, err = m.Float64Histogram("enunciate.stt.duration",
		metric.WithDescription("Latency of server-side speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("enunciate.provider.requests",
		metric.WithDescription("Total transcription provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("enunciate.provider.errors",
		metric.WithDescription("Total transcription provider errors by provider."),
	); err != nil {
		return nil, err
	}

	if met.Recordings, err = m.Int64Counter("enunciate.practice.recordings",
		metric.WithDescription("Total recordings submitted for scoring."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("enunciate.practice.active_sessions",
		metric.WithDescription("Number of open practice sessions."),
	); err != nil {
		return nil, err
	}
	if met.LiveConnections, err = m.Int64UpDownCounter("enunciate.live.connections",
		metric.WithDescription("Number of open live recognition connections."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("enunciate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// ObserveScore implements [scoring.Observer].
func (m *Metrics) ObserveScore(ctx context.Context, b types.ScoreBreakdown) {
	m.FinalScore.Record(ctx, int64(b.FinalAccuracy),
		metric.WithAttributes(
			attribute.String("tier", string(b.Tier)),
			attribute.String("speech_source", string(b.SpeechSource)),
		),
	)
}

// ObserveFault implements [scoring.Observer].
func (m *Metrics) ObserveFault(ctx context.Context, scorer string, _ error) {
	m.ScorerFaults.Add(ctx, 1, metric.WithAttributes(attribute.String("scorer", scorer)))
}

// RecordProviderRequest records a provider request counter increment with
// the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordRecording counts a submitted recording for the given item kind.
func (m *Metrics) RecordRecording(ctx context.Context, kind types.ItemKind) {
	m.Recordings.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
