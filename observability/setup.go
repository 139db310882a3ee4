package observability

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/covaflow/config"
)

// Setup installs OTLP tracer and meter providers when telemetry is enabled
// and returns a shutdown function that flushes them. With telemetry
// disabled the global no-op providers stay in place.
func Setup(ctx context.Context, svc config.ServiceConfig, tel config.Telemetry) (func(context.Context) error, error) {
	if !tel.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	tc := DefaultTracerConfig(svc.Name)
	tc.Environment = svc.Environment
	tc.Endpoint = tel.Endpoint
	tc.Insecure = tel.Insecure
	tc.SampleRate = tel.SampleRatio
	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}

	mc := DefaultMeterConfig(svc.Name)
	mc.Environment = svc.Environment
	mc.Endpoint = tel.Endpoint
	mc.Insecure = tel.Insecure
	mp, err := InitMeter(ctx, &mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
