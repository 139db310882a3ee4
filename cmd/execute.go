package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kbukum/covaflow/builder"
	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/engine/gstreamer"
	"github.com/kbukum/covaflow/lifecycle"
	"github.com/kbukum/covaflow/logger"
	"github.com/kbukum/covaflow/observability"
	"github.com/kbukum/covaflow/stats"
)

const (
	meterName       = "github.com/kbukum/covaflow"
	shutdownTimeout = 5 * time.Second
)

// execution wires one pipeline run.
type execution struct {
	cfg    *config.Config
	report io.Writer
	// exit is called on forced termination and on a second signal.
	exit func(int)
}

func (e execution) run(ctx context.Context) (*stats.RunStatistics, error) {
	log := logger.Get("covaflow")

	shutdown, err := observability.Setup(ctx, e.cfg.ServiceConfig, e.cfg.Telemetry)
	if err != nil {
		log.Warn("telemetry disabled", logger.ErrorFields("setup", err))
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()

	metrics, err := observability.NewMetrics(observability.Meter(meterName))
	if err != nil {
		log.Warn("metrics disabled", logger.ErrorFields("metrics", err))
		metrics = nil
	}

	b, err := builder.New(e.cfg.Pipeline, builder.WithLogger(logger.Get("builder")))
	if err != nil {
		return nil, err
	}
	eng, err := gstreamer.New(gstreamer.WithLogger(logger.Get("gstreamer")))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn("closing engine failed", logger.ErrorFields("close", err))
		}
	}()

	exit := e.exit
	if exit == nil {
		exit = os.Exit
	}
	token := &lifecycle.Token{}
	stop := lifecycle.WatchSignals(token, exit, log)
	defer stop()

	ctrl := lifecycle.New(eng, b,
		lifecycle.WithLogger(logger.Get("lifecycle")),
		lifecycle.WithReport(e.report),
		lifecycle.WithMetrics(metrics),
		lifecycle.WithToken(token),
		lifecycle.WithExit(exit),
	)
	log.Info("starting pipeline", logger.Fields(
		logger.FieldRunID, ctrl.RunID(),
		logger.FieldVariant, string(b.Variant()),
		logger.FieldPoint, b.Point(),
		"input", e.cfg.InputFile,
	))
	if err := ctrl.Start(ctx); err != nil {
		return nil, err
	}
	return ctrl.Run(ctx)
}
