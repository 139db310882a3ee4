package observability

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/covaflow/logger"
	"github.com/kbukum/covaflow/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Frame outcomes reported by trackers.
const (
	OutcomeDropped    = "dropped"
	OutcomeDependency = "decoded_dependency"
	OutcomeInference  = "decoded_inference"
)

// Metrics holds the instruments recorded for pipeline runs.
type Metrics struct {
	runTotal     metric.Int64Counter
	runElapsed   metric.Float64Histogram
	frames       metric.Int64Counter
	rate         metric.Float64Gauge
	transitions  metric.Int64Counter
	errorTotal   metric.Int64Counter
	stagesActive metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("pipeline.run.total",
		metric.WithDescription("Total number of pipeline runs by variant and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.total counter: %w", err)
	}

	runElapsed, err := meter.Float64Histogram("pipeline.run.elapsed",
		metric.WithDescription("Wall time between stream start and end of stream"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.run.elapsed histogram: %w", err)
	}

	frames, err := meter.Int64Counter("tracker.frames",
		metric.WithDescription("Frames seen by trackers by lane and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracker.frames counter: %w", err)
	}

	rate, err := meter.Float64Gauge("tracker.rate",
		metric.WithDescription("Share of frames decoded or inferred in the last run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracker.rate gauge: %w", err)
	}

	transitions, err := meter.Int64Counter("pipeline.transitions",
		metric.WithDescription("Lifecycle state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.transitions counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	stagesActive, err := meter.Int64UpDownCounter("graph.stages.active",
		metric.WithDescription("Stages currently materialized in the engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating graph.stages.active counter: %w", err)
	}

	return &Metrics{
		runTotal:     runTotal,
		runElapsed:   runElapsed,
		frames:       frames,
		rate:         rate,
		transitions:  transitions,
		errorTotal:   errorTotal,
		stagesActive: stagesActive,
	}, nil
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, variant, status string, elapsed time.Duration) {
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("status", status),
	))
	if elapsed > 0 {
		m.runElapsed.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("variant", variant),
		))
	}
}

// RecordLane adds the tracker counters of one lane.
func (m *Metrics) RecordLane(ctx context.Context, lane int, dropped, dependency, inference uint64) {
	for outcome, n := range map[string]uint64{
		OutcomeDropped:    dropped,
		OutcomeDependency: dependency,
		OutcomeInference:  inference,
	} {
		m.frames.Add(ctx, int64(n), metric.WithAttributes(
			attribute.Int("lane", lane),
			attribute.String("outcome", outcome),
		))
	}
}

// RecordRates records the decode and inference rates of a run. NaN values
// from degenerate runs are skipped.
func (m *Metrics) RecordRates(ctx context.Context, decode, inference float64) {
	for kind, v := range map[string]float64{"decode": decode, "inference": inference} {
		if math.IsNaN(v) {
			continue
		}
		m.rate.Record(ctx, v, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordTransition records a lifecycle state change.
func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordStages adjusts the number of materialized stages.
func (m *Metrics) RecordStages(ctx context.Context, delta int) {
	m.stagesActive.Add(ctx, int64(delta))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
