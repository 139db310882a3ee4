package observability

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/covaflow/config"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("covaflow")

	if cfg.ServiceName != "covaflow" {
		t.Errorf("expected ServiceName 'covaflow', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.ServiceVersion == "" {
		t.Error("expected ServiceVersion from the build")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("covaflow")

	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure true for default config")
	}
}

func TestNewMetricsNoop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRun(ctx, "tracking-multi-lane", "ok", 2*time.Second)
	metrics.RecordLane(ctx, 0, 10, 5, 2)
	metrics.RecordRates(ctx, 0.4, math.NaN())
	metrics.RecordTransition(ctx, "paused", "playing")
	metrics.RecordStages(ctx, 12)
	metrics.RecordError(ctx, "ENGINE_ERROR", "lifecycle")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestRecordLane(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	metrics.RecordLane(ctx, 0, 10, 5, 2)
	metrics.RecordLane(ctx, 1, 1, 1, 1)

	sum, ok := collect(t, reader)["tracker.frames"].(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected tracker.frames to be an int64 sum")
	}
	got := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		lane, _ := dp.Attributes.Value(attribute.Key("lane"))
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		got[fmt.Sprintf("%d/%s", lane.AsInt64(), outcome.AsString())] = dp.Value
	}
	if got["0/dropped"] != 10 || got["0/decoded_dependency"] != 5 || got["0/decoded_inference"] != 2 {
		t.Errorf("unexpected lane 0 counters: %v", got)
	}
	if got["1/dropped"] != 1 {
		t.Errorf("unexpected lane 1 counters: %v", got)
	}
}

func TestRecordRatesSkipsNaN(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, _ := NewMetrics(mp.Meter("test"))
	metrics.RecordRates(context.Background(), 0.25, math.NaN())

	gauge, ok := collect(t, reader)["tracker.rate"].(metricdata.Gauge[float64])
	if !ok {
		t.Fatal("expected tracker.rate to be a float64 gauge")
	}
	if len(gauge.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(gauge.DataPoints))
	}
	if gauge.DataPoints[0].Value != 0.25 {
		t.Errorf("expected 0.25, got %f", gauge.DataPoints[0].Value)
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanRun)
	defer span.End()

	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected non-nil span from context")
	}
}

func useRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := useRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanBuildComplete)
	SetSpanAttribute(ctx, AttrVariant, "single-lane")
	SetSpanAttribute(ctx, AttrStages, 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := attribute.NewSet(spans[0].Attributes...)
	if v, _ := attrs.Value(AttrVariant); v.AsString() != "single-lane" {
		t.Errorf("expected variant attribute, got %v", v)
	}
	if v, _ := attrs.Value(AttrStages); v.AsInt64() != 42 {
		t.Errorf("expected stages attribute 42, got %v", v)
	}
	if attrs.HasValue("unsupported-key") {
		t.Error("unsupported value types should be ignored")
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
	SetSpanError(context.Background(), fmt.Errorf("no span error"))
}

func TestSetSpanError(t *testing.T) {
	exporter := useRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanBuildPrefix)
	SetSpanError(ctx, fmt.Errorf("link refused"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || len(spans[0].Events) != 1 {
		t.Fatalf("expected one span with one error event, got %v", spans)
	}
}

func TestRunContext(t *testing.T) {
	exporter := useRecorder(t)
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter("test"))

	rc := NewRunContext("covaflow", "run-1", "tracking-multi-lane", "full", metrics)
	ctx := WithRunContext(context.Background(), rc)
	if got := RunContextFromContext(ctx); got != rc {
		t.Fatal("expected run context from context")
	}

	ctx, span := rc.StartSpan(ctx, SpanRun)
	rc.End(ctx, span, "error", time.Second, fmt.Errorf("engine error"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := attribute.NewSet(spans[0].Attributes...)
	if v, _ := attrs.Value(AttrRunID); v.AsString() != "run-1" {
		t.Errorf("expected run id attribute, got %v", v)
	}
	if v, _ := attrs.Value(AttrStatus); v.AsString() != "error" {
		t.Errorf("expected status attribute, got %v", v)
	}
}

func TestRunContextFromContextNotSet(t *testing.T) {
	if rc := RunContextFromContext(context.Background()); rc != nil {
		t.Errorf("expected nil, got %v", rc)
	}
}

func TestRunContextNilMetrics(t *testing.T) {
	rc := NewRunContext("covaflow", "run-2", "single-lane", "nvdec", nil)
	ctx, span := rc.StartSpan(context.Background(), SpanRun)
	rc.End(ctx, span, "ok", 0, nil)
	if rc.Duration() < 0 {
		t.Error("expected non-negative duration")
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.ServiceConfig{Name: "covaflow"}, config.Telemetry{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestInitTracerSamplingRates(t *testing.T) {
	for _, rate := range []float64{1.0, 0.0, 0.5} {
		t.Run(fmt.Sprintf("%.1f", rate), func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.Environment = "test"
			cfg.SampleRate = rate
			prev := otel.GetTracerProvider()
			defer otel.SetTracerProvider(prev)

			tp, err := InitTracer(context.Background(), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		if got := sampler(tt.ratio).Description(); got != tt.want {
			t.Errorf("ratio %v: expected %s, got %s", tt.ratio, tt.want, got)
		}
	}
	if got := sampler(0.25).Description(); got[:11] != "ParentBased" {
		t.Errorf("expected a parent based sampler, got %s", got)
	}
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test")
	cfg.Interval = 0
	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
