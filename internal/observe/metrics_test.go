package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/enunciate/pkg/types"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the value of the int64 sum data point whose attribute key
// equals value, and whether such a point exists.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) (int64, bool) {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value, true
		}
	}
	return 0, false
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestObserveScore(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ObserveScore(ctx, types.ScoreBreakdown{FinalAccuracy: 92, Tier: types.TierExcellent, SpeechSource: types.SourceTranscript})
	m.ObserveScore(ctx, types.ScoreBreakdown{FinalAccuracy: 88, Tier: types.TierExcellent, SpeechSource: types.SourceTranscript})
	m.ObserveScore(ctx, types.ScoreBreakdown{FinalAccuracy: 40, Tier: types.TierNeedsImprovement, SpeechSource: types.SourceFallback})

	rm := collect(t, reader)
	met := findMetric(rm, "enunciate.score.final")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatal("metric is not an int64 histogram")
	}

	var found bool
	for _, dp := range hist.DataPoints {
		tier, _ := dp.Attributes.Value("tier")
		if tier.AsString() != string(types.TierExcellent) {
			continue
		}
		found = true
		if dp.Count != 2 {
			t.Errorf("excellent count = %d, want 2", dp.Count)
		}
		if dp.Sum != 180 {
			t.Errorf("excellent sum = %d, want 180", dp.Sum)
		}
	}
	if !found {
		t.Error("data point with tier=excellent not found")
	}
}

func TestObserveFault(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ObserveFault(ctx, "audio", errors.New("boom"))
	m.ObserveFault(ctx, "audio", errors.New("boom"))
	m.ObserveFault(ctx, "phonetic", errors.New("boom"))

	rm := collect(t, reader)
	if got, ok := sumFor(t, rm, "enunciate.scorer.faults", "scorer", "audio"); !ok || got != 2 {
		t.Errorf("audio faults = %d (found %v), want 2", got, ok)
	}
	if got, ok := sumFor(t, rm, "enunciate.scorer.faults", "scorer", "phonetic"); !ok || got != 1 {
		t.Errorf("phonetic faults = %d (found %v), want 1", got, ok)
	}
}

func TestProviderCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "whisper", "ok")
	m.RecordProviderRequest(ctx, "whisper", "ok")
	m.RecordProviderRequest(ctx, "whisper", "error")
	m.RecordProviderError(ctx, "whisper")

	rm := collect(t, reader)
	if got, ok := sumFor(t, rm, "enunciate.provider.requests", "status", "ok"); !ok || got != 2 {
		t.Errorf("ok requests = %d (found %v), want 2", got, ok)
	}
	if got, ok := sumFor(t, rm, "enunciate.provider.errors", "provider", "whisper"); !ok || got != 1 {
		t.Errorf("errors = %d (found %v), want 1", got, ok)
	}
}

func TestRecordRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRecording(ctx, types.KindWord)
	m.RecordRecording(ctx, types.KindPhrase)
	m.RecordRecording(ctx, types.KindWord)

	rm := collect(t, reader)
	if got, ok := sumFor(t, rm, "enunciate.practice.recordings", "kind", "word"); !ok || got != 2 {
		t.Errorf("word recordings = %d (found %v), want 2", got, ok)
	}
}

func TestGauges(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
	m.LiveConnections.Add(ctx, 3)

	rm := collect(t, reader)

	gauges := []struct {
		name string
		want int64
	}{
		{"enunciate.practice.active_sessions", 1},
		{"enunciate.live.connections", 3},
	}

	for _, tc := range gauges {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", tc.name)
			}
			if len(sum.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := sum.DataPoints[0].Value; got != tc.want {
				t.Errorf("gauge value = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSTTDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.STTDuration.Record(ctx, 0.3, metric.WithAttributes(attribute.String("provider", "whisper")))

	rm := collect(t, reader)
	met := findMetric(rm, "enunciate.stt.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
		t.Errorf("data points = %+v, want one sample", hist.DataPoints)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
