package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext holds observability state for one pipeline run.
type RunContext struct {
	ServiceName string
	RunID       string
	Variant     string
	Point       string
	StartTime   time.Time
	Metrics     *Metrics
}

// NewRunContext creates a run context. If metrics is nil, metric
// recording is skipped.
func NewRunContext(serviceName, runID, variant, point string, metrics *Metrics) *RunContext {
	return &RunContext{
		ServiceName: serviceName,
		RunID:       runID,
		Variant:     variant,
		Point:       point,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartSpan starts a span carrying the run attributes.
func (rc *RunContext) StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(
		attribute.String(AttrServiceName, rc.ServiceName),
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrVariant, rc.Variant),
		attribute.String(AttrPoint, rc.Point),
	)
	return ctx, span
}

// End ends the span and records the run outcome.
func (rc *RunContext) End(ctx context.Context, span trace.Span, status string, elapsed time.Duration, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, rc.Duration().Milliseconds()),
	)
	span.End()

	if rc.Metrics != nil {
		rc.Metrics.RecordRun(ctx, rc.Variant, status, elapsed)
	}
}

// Duration returns the wall time since the run context was created.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
