package observe

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MrWong99/enunciate/pkg/types"
)

func newTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	tel, err := Setup(context.Background(), ServiceInfo{Name: "enunciate-test", Version: "1.2.3"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return tel
}

func scrape(t *testing.T, tel *Telemetry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("scrape status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestTelemetry_ScrapesScoresFromPrivateRegistry(t *testing.T) {
	t.Parallel()
	tel := newTelemetry(t)

	tel.Metrics().ObserveScore(context.Background(), types.ScoreBreakdown{
		SpeechRecognition: 100, AudioAnalysis: 80, Phonetic: 75, FinalAccuracy: 90,
		Tier: types.TierExcellent, SpeechSource: types.SourceTranscript,
	})

	out := scrape(t, tel)
	if !strings.Contains(out, "enunciate_score_final") {
		t.Errorf("scrape missing enunciate_score_final:\n%s", out)
	}
	if !strings.Contains(out, `service_name="enunciate-test"`) {
		t.Errorf("scrape missing service name in target_info:\n%s", out)
	}
}

func TestTelemetry_InstancesDoNotShareRegistries(t *testing.T) {
	t.Parallel()
	a, b := newTelemetry(t), newTelemetry(t)

	a.Metrics().ObserveFault(context.Background(), "audio", nil)
	if strings.Contains(scrape(t, b), "enunciate_scorer_faults") {
		t.Error("fault recorded on one Telemetry leaked into another")
	}
	if !strings.Contains(scrape(t, a), "enunciate_scorer_faults") {
		t.Error("fault missing from the Telemetry it was recorded on")
	}
}

func TestTelemetry_ShutdownIsIdempotent(t *testing.T) {
	t.Parallel()
	tel, err := Setup(context.Background(), ServiceInfo{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown = %v, want the first result (nil)", err)
	}
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without span = %q, want empty", got)
	}

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "attempt")
	defer span.End()

	cid := CorrelationID(ctx)
	if cid != span.SpanContext().TraceID().String() || len(cid) != 32 {
		t.Errorf("CorrelationID = %q, want trace ID %s", cid, span.SpanContext().TraceID())
	}
}

// Not parallel: Logger reads slog.Default.
func TestLogger_TagsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	Logger(context.Background()).Info("no span")
	if strings.Contains(buf.String(), "correlation_id") {
		t.Errorf("log without span carries correlation_id: %s", buf.String())
	}

	buf.Reset()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "attempt")
	defer span.End()

	Logger(ctx).Info("with span")
	want := "correlation_id=" + CorrelationID(ctx)
	if !strings.Contains(buf.String(), want) {
		t.Errorf("log = %q, want it to contain %q", buf.String(), want)
	}
}
