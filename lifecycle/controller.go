// Package lifecycle drives one pipeline run: it materializes the graph
// prefix, waits for the demuxer to report the video stream, completes the
// graph, plays it to end of stream and reports statistics.
//
// The controller is single-threaded. Engine callbacks never touch it; they
// arrive as events that Run handles one at a time.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kbukum/covaflow/builder"
	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
	"github.com/kbukum/covaflow/logger"
	"github.com/kbukum/covaflow/observability"
	"github.com/kbukum/covaflow/stats"
)

// DefaultPollInterval bounds each wait for an engine event.
const DefaultPollInterval = 50 * time.Millisecond

const serviceName = "covaflow"

// Option configures a Controller.
type Option func(*Controller)

// WithExit replaces os.Exit for unrecoverable startup failures and forced
// termination.
func WithExit(exit func(int)) Option {
	return func(c *Controller) { c.exit = exit }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithPollInterval sets the bounded wait for each event.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.poll = d }
}

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithReport sets where the run report is written. Defaults to stdout.
func WithReport(w io.Writer) Option {
	return func(c *Controller) { c.report = w }
}

// WithMetrics records run metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithToken shares a cancellation token, usually one fed by WatchSignals.
func WithToken(t *Token) Option {
	return func(c *Controller) { c.token = t }
}

// WithObserver subscribes to transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// Controller owns the graph and the engine for one run.
type Controller struct {
	eng       engine.Engine
	b         *builder.Builder
	g         *graph.Graph
	demux     *graph.Stage
	state     State
	observers []Observer

	exit    func(int)
	now     func() time.Time
	poll    time.Duration
	log     *logger.Logger
	report  io.Writer
	metrics *observability.Metrics
	token   *Token
	runID   string

	start, stop  time.Time
	discovered   bool
	materialized int
}

// New creates a controller in the Null state.
func New(eng engine.Engine, b *builder.Builder, opts ...Option) *Controller {
	c := &Controller{
		eng:    eng,
		b:      b,
		g:      graph.New(),
		exit:   os.Exit,
		now:    time.Now,
		poll:   DefaultPollInterval,
		log:    logger.Nop(),
		report: os.Stdout,
		token:  &Token{},
		runID:  stats.NewRunID(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithFields(map[string]interface{}{logger.FieldRunID: c.runID})
	return c
}

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Graph returns the graph the controller builds.
func (c *Controller) Graph() *graph.Graph { return c.g }

// Token returns the cancellation token checked by Run.
func (c *Controller) Token() *Token { return c.token }

// RunID identifies this run in logs and statistics.
func (c *Controller) RunID() string { return c.runID }

// Subscribe adds a transition observer.
func (c *Controller) Subscribe(o Observer) { c.observers = append(c.observers, o) }

func (c *Controller) transition(ctx context.Context, to State) error {
	from := c.state
	if from == to {
		return nil
	}
	if err := checkTransition(from, to); err != nil {
		return err
	}
	c.state = to
	c.log.Debug("state changed", logger.Fields("from", from.String(), logger.FieldState, to.String()))
	if c.metrics != nil {
		c.metrics.RecordTransition(ctx, from.String(), to.String())
	}
	for _, o := range c.observers {
		o(from, to)
	}
	return nil
}

func (c *Controller) materialize(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanMaterialize)
	defer span.End()
	if err := c.eng.Materialize(ctx, c.g); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	delta := c.g.Len() - c.materialized
	c.materialized = c.g.Len()
	observability.SetSpanAttribute(ctx, observability.AttrStages, delta)
	if c.metrics != nil {
		c.metrics.RecordStages(ctx, delta)
	}
	return nil
}

// Start builds and materializes the graph prefix and requests Paused. If the
// engine refuses Paused the exit function is called with status 1.
func (c *Controller) Start(ctx context.Context) error {
	demux, err := c.b.Prefix(ctx, c.g)
	if err != nil {
		return err
	}
	c.demux = demux
	if err := c.materialize(ctx); err != nil {
		return err
	}
	if err := c.eng.SetState(ctx, engine.StatePaused); err != nil {
		c.log.Error("unable to set the pipeline to the paused state", logger.ErrorFields("start", err))
		c.exit(errors.ExitStartup)
		return errors.EngineStartup(err)
	}
	return c.transition(ctx, StatePaused)
}

// Run handles engine events until end of stream, an engine error or
// cancellation. It returns the statistics of a completed run.
func (c *Controller) Run(ctx context.Context) (*stats.RunStatistics, error) {
	rc := observability.NewRunContext(serviceName, c.runID, string(c.b.Variant()), c.b.Point(), c.metrics)
	ctx, span := rc.StartSpan(ctx, observability.SpanRun)

	st, err := c.loop(ctx)

	status := "ok"
	var elapsed time.Duration
	switch {
	case errors.HasCode(err, errors.ErrCodeCanceled):
		status = "canceled"
	case err != nil:
		status = "error"
		if c.metrics != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				c.metrics.RecordError(ctx, string(appErr.Code), "lifecycle")
			}
		}
	}
	if st != nil {
		elapsed = st.Elapsed
	}
	rc.End(ctx, span, status, elapsed, err)
	return st, err
}

func (c *Controller) loop(ctx context.Context) (*stats.RunStatistics, error) {
	for {
		if c.token.Canceled() || ctx.Err() != nil {
			return c.Terminate(ctx, true)
		}
		ev, ok := c.eng.Next(ctx, c.poll)
		if !ok {
			continue
		}
		if c.log.Enabled(zerolog.DebugLevel) {
			c.log.Debug("event", ev.Fields())
		}

		switch ev.Kind {
		case engine.EventStreamStart:
			if c.start.IsZero() {
				c.start = c.now()
			}
		case engine.EventStreamDiscovered:
			if err := c.onDiscovered(ctx, ev); err != nil {
				return nil, c.fail(ctx, err)
			}
		case engine.EventError:
			return nil, c.onError(ctx, ev)
		case engine.EventEOS:
			if ev.Source != c.eng.TopLevel() {
				continue
			}
			c.stop = c.now()
			if err := c.transition(ctx, StateTerminatingEOS); err != nil {
				return nil, err
			}
			return c.Terminate(ctx, false)
		case engine.EventStateChanged:
			if ev.Source == c.eng.TopLevel() {
				c.mirror(ctx, fromEngine(ev.New))
			}
		}
	}
}

// onDiscovered completes the graph for the first H.264 pad of the demuxer.
// The engine thread that raised the event waits until it is acknowledged.
func (c *Controller) onDiscovered(ctx context.Context, ev engine.Event) error {
	acked := false
	ack := func() {
		if !acked {
			acked = true
			ev.Ack()
		}
	}
	defer ack()

	if c.discovered || c.demux == nil || ev.Source != c.demux.ID || !strings.HasPrefix(ev.Caps, catalog.FormatH264) {
		c.log.Debug("ignoring pad", logger.Fields(logger.FieldSource, ev.Source, logger.FieldPad, ev.Pad, "caps", ev.Caps))
		return nil
	}
	c.discovered = true

	if _, err := c.b.Complete(ctx, c.g, c.demux.Pad(ev.Pad)); err != nil {
		return err
	}
	if err := c.materialize(ctx); err != nil {
		return err
	}
	c.log.Info("graph materialized", logger.Fields(
		logger.FieldVariant, string(c.b.Variant()),
		logger.FieldPoint, c.b.Point(),
		logger.FieldPad, ev.Pad,
		"stages", c.g.Len(),
	))
	ack()
	if err := c.eng.SetState(ctx, engine.StatePlaying); err != nil {
		return errors.EngineError(c.eng.TopLevel(), err)
	}
	return nil
}

// fail releases the engine after a construction or link failure.
func (c *Controller) fail(ctx context.Context, err error) error {
	c.log.Error("run failed", logger.ErrorFields("run", err))
	if CanTransition(c.state, StateTerminatingError) {
		_ = c.transition(ctx, StateTerminatingError)
	}
	c.release(ctx)
	return err
}

func (c *Controller) onError(ctx context.Context, ev engine.Event) error {
	c.log.Error("engine error", ev.Fields())
	if err := c.transition(ctx, StateTerminatingError); err != nil {
		c.log.Warn("unexpected transition", logger.ErrorFields("error", err))
	}
	c.release(ctx)
	return errors.EngineError(ev.Source, ev.Err).WithDetail("debug", ev.Debug)
}

// mirror follows a state change reported by the engine when the table
// allows it.
func (c *Controller) mirror(ctx context.Context, to State) {
	if c.state == to || !CanTransition(c.state, to) {
		return
	}
	_ = c.transition(ctx, to)
}

// release drives the engine to Null.
func (c *Controller) release(ctx context.Context) {
	if err := c.eng.SetState(ctx, engine.StateNull); err != nil {
		c.log.Warn("unable to release the pipeline", logger.ErrorFields("release", err))
	}
	if c.metrics != nil && c.materialized > 0 {
		c.metrics.RecordStages(ctx, -c.materialized)
	}
	c.materialized = 0
	if c.state.Terminating() {
		_ = c.transition(ctx, StateNull)
	}
}

// Terminate ends the run. An orderly termination collects statistics,
// writes the report and releases the engine. A forced termination skips all
// of that and calls the exit function with status 0.
func (c *Controller) Terminate(ctx context.Context, force bool) (*stats.RunStatistics, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTerminate)
	defer span.End()

	if force {
		c.log.Warn("forced termination", logger.Fields(logger.FieldState, c.state.String()))
		c.exit(errors.ExitOK)
		return nil, errors.Canceled("run terminated before end of stream")
	}

	if c.stop.IsZero() {
		c.stop = c.now()
	}
	if !c.state.Terminating() {
		if err := c.transition(ctx, StateTerminatingEOS); err != nil {
			return nil, err
		}
	}

	st, err := stats.Collect(c.eng, c.g, c.start, c.stop)
	if err != nil {
		c.log.Error("collecting statistics failed", logger.ErrorFields("stats", err))
		c.release(ctx)
		return nil, errors.Internal(err)
	}
	st.RunID = c.runID
	if err := stats.WriteReport(c.report, st); err != nil {
		c.log.Warn("writing report failed", logger.ErrorFields("report", err))
	}
	c.record(ctx, st)
	c.log.Info("run finished", st.Fields())

	c.release(ctx)
	return st, nil
}

func (c *Controller) record(ctx context.Context, st *stats.RunStatistics) {
	if c.metrics == nil {
		return
	}
	for _, l := range st.Lanes {
		c.metrics.RecordLane(ctx, l.Lane, l.Dropped, l.DecodedDependency, l.DecodedInference)
	}
	if st.HasTrackers() {
		c.metrics.RecordRates(ctx, st.DecodeRate, st.InferenceRate)
	}
}

func (c *Controller) String() string {
	return fmt.Sprintf("controller(%s, %s)", c.runID, c.state)
}
