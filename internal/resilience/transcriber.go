package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// ErrNoTranscriber is returned by [Transcriber.Check] when every backend's
// breaker is open.
var ErrNoTranscriber = errors.New("no transcription backend available")

// Transcriber implements [stt.Provider] with automatic failover across
// several transcription backends. Each backend has its own circuit breaker.
type Transcriber struct {
	group   *FallbackGroup[namedProvider]
	metrics *observe.Metrics
}

type namedProvider struct {
	name string
	stt.Provider
}

// Compile-time interface assertion.
var _ stt.Provider = (*Transcriber)(nil)

// TranscriberOption configures a [Transcriber].
type TranscriberOption func(*Transcriber)

// WithMetrics records request counts, errors and latency per backend.
func WithMetrics(m *observe.Metrics) TranscriberOption {
	return func(t *Transcriber) {
		t.metrics = m
	}
}

// NewTranscriber creates a [Transcriber] with primary as the preferred backend.
func NewTranscriber(primary stt.Provider, primaryName string, cfg FallbackConfig, opts ...TranscriberOption) *Transcriber {
	t := &Transcriber{
		group: NewFallbackGroup(namedProvider{name: primaryName, Provider: primary}, primaryName, cfg),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// AddFallback registers an additional backend. Call it before the
// transcriber is shared.
func (t *Transcriber) AddFallback(name string, p stt.Provider) {
	t.group.AddFallback(name, namedProvider{name: name, Provider: p})
}

// Names returns the backend names in failover order.
func (t *Transcriber) Names() []string {
	return t.group.Names()
}

// States reports the breaker state of every backend.
func (t *Transcriber) States() map[string]State {
	return t.group.States()
}

// Transcribe sends req to the first healthy backend. It returns an error
// wrapping [ErrAllFailed] when no backend produced a transcript.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (stt.Transcript, error) {
	tr, err := ExecuteWithResult(t.group, func(p namedProvider) (stt.Transcript, error) {
		start := time.Now()
		tr, err := p.Transcribe(ctx, req)
		t.record(ctx, p.name, time.Since(start), err)
		return tr, err
	})
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("transcribe: %w", err)
	}
	return tr, nil
}

// Check implements a readiness probe: it fails only when every backend's
// breaker is open.
func (t *Transcriber) Check(_ context.Context) error {
	if t.group.Available() {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNoTranscriber, t.group.Names())
}

func (t *Transcriber) record(ctx context.Context, name string, d time.Duration, err error) {
	if t.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		t.metrics.RecordProviderError(ctx, name)
	}
	t.metrics.RecordProviderRequest(ctx, name, status)
	t.metrics.STTDuration.Record(ctx, d.Seconds(), metric.WithAttributes(observe.Attr("provider", name)))
}
