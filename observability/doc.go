// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("covaflow"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanBuildComplete)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("covaflow"))
//	metrics.RecordLane(ctx, 0, dropped, dependency, inference)
//
// Setup wires both from the telemetry section of the configuration and
// leaves the global no-op providers in place when no endpoint is set.
package observability
