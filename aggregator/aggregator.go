package aggregator

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/logger"
	"github.com/kbukum/covaflow/process"
)

// Default wait applied when the configuration does not set one.
const DefaultWait = 60 * time.Second

// Options describes one aggregator invocation.
type Options struct {
	Binary           string
	OutputDir        string
	TrackPort        int
	DNNPort          int
	NumTracker       int
	ScaleFactor      float64
	MovingIOU        float64
	StationaryIOU    float64
	StationaryMaxAge uint
	CUDADevice       string
	Wait             time.Duration
}

// NewOptions fills Options from the aggregator configuration. The tracker
// count follows num_entdec since every entropy-decode lane ends in a tracker.
func NewOptions(cfg *config.Config, outputDir string, trackPort, dnnPort int) Options {
	wait := time.Duration(cfg.Aggregator.WaitSeconds) * time.Second
	if wait <= 0 {
		wait = DefaultWait
	}
	return Options{
		Binary:           cfg.Aggregator.Binary,
		OutputDir:        outputDir,
		TrackPort:        trackPort,
		DNNPort:          dnnPort,
		NumTracker:       cfg.NumEntdec,
		ScaleFactor:      cfg.Aggregator.ScaleFactor,
		MovingIOU:        cfg.Aggregator.MovingIOU,
		StationaryIOU:    cfg.Aggregator.StationaryIOU,
		StationaryMaxAge: cfg.Aggregator.StationaryMaxAge,
		CUDADevice:       cfg.Aggregator.CUDADevice,
		Wait:             wait,
	}
}

// Args returns the aggregator command line, binary excluded.
func (o Options) Args() []string {
	return []string{
		o.OutputDir,
		strconv.Itoa(o.TrackPort),
		strconv.Itoa(o.DNNPort),
		"--num-tracker", strconv.Itoa(o.NumTracker),
		"--scale-factor", formatFloat(o.ScaleFactor),
		"--moving-iou", formatFloat(o.MovingIOU),
		"--stationary-iou", formatFloat(o.StationaryIOU),
		"--stationary-maxage", strconv.FormatUint(uint64(o.StationaryMaxAge), 10),
	}
}

// Env returns the extra environment of the aggregator.
func (o Options) Env() []string {
	if o.CUDADevice == "" {
		return nil
	}
	return []string{"CUDA_VISIBLE_DEVICES=" + o.CUDADevice}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Aggregator is a running analysis-aggregator.
type Aggregator struct {
	opts   Options
	handle *process.Handle
	log    *logger.Logger
}

// Start launches the aggregator with its output forwarded to out.
func Start(opts Options, out io.Writer) (*Aggregator, error) {
	if opts.Binary == "" {
		return nil, fmt.Errorf("aggregator: binary is not configured")
	}
	log := logger.Get("aggregator")
	log.Info("starting aggregator", map[string]interface{}{
		"binary":     opts.Binary,
		"args":       opts.Args(),
		"track_port": opts.TrackPort,
		"dnn_port":   opts.DNNPort,
	})

	h, err := process.Start(process.Command{
		Binary: opts.Binary,
		Args:   opts.Args(),
		Env:    opts.Env(),
		Stdout: out,
		Stderr: out,
	})
	if err != nil {
		return nil, err
	}
	return &Aggregator{opts: opts, handle: h, log: log}, nil
}

// Pid returns the aggregator process ID.
func (a *Aggregator) Pid() int { return a.handle.Pid() }

// Terminate asks the aggregator to stop.
func (a *Aggregator) Terminate() error {
	a.log.Info("terminating aggregator", map[string]interface{}{"pid": a.handle.Pid()})
	return a.handle.Terminate()
}

// Wait blocks until the aggregator exits or the configured wait elapses,
// in which case it is terminated.
func (a *Aggregator) Wait(ctx context.Context) (*process.Result, error) {
	res, err := a.handle.Wait(ctx, a.opts.Wait)
	if err != nil {
		a.log.Warn("aggregator did not exit cleanly", logger.ErrorFields("wait", err))
		return res, err
	}
	a.log.Info("aggregator exited", map[string]interface{}{
		"exit_code":   res.ExitCode,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res, nil
}
