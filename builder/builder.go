package builder

import (
	"context"
	"fmt"

	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
	"github.com/kbukum/covaflow/logger"
	"github.com/kbukum/covaflow/observability"
)

// State is the phase of the deferred build.
type State int

const (
	// AwaitingStreamType means Complete has not run yet.
	AwaitingStreamType State = iota
	// Materialized means Complete has run and cannot run again.
	Materialized
)

func (s State) String() string {
	if s == Materialized {
		return "materialized"
	}
	return "awaiting-stream-type"
}

// Build step names that are not truncation points.
const (
	StepPrefix = "prefix"
	StepParse  = "parse"
	StepSink   = "sink"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for stage creation.
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// Builder builds the graph for one run.
type Builder struct {
	cfg     config.Pipeline
	variant Variant
	steps   []step
	state   State
	log     *logger.Logger
}

// New resolves the variant and truncation point of cfg and plans the whole
// build on a scratch graph, so every construction error is reported here.
func New(cfg config.Pipeline, opts ...Option) (*Builder, error) {
	v, err := ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	t := tables[v]
	steps, ok := t.upTo(cfg.Last)
	if !ok {
		return nil, errors.UnknownTruncation(string(v), cfg.Last, t.points())
	}
	b := &Builder{
		cfg:     cfg,
		variant: v,
		steps:   steps,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if _, err := b.Plan(); err != nil {
		return nil, err
	}
	return b, nil
}

// Variant returns the resolved variant.
func (b *Builder) Variant() Variant { return b.variant }

// Point returns the truncation point.
func (b *Builder) Point() string { return b.cfg.Last }

// State returns the phase of the deferred build.
func (b *Builder) State() State { return b.state }

// Prefix adds the stream-independent stages to g and returns the demuxer.
func (b *Builder) Prefix(ctx context.Context, g *graph.Graph) (*graph.Stage, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBuildPrefix)
	defer span.End()

	src, err := g.Add("filesrc", map[string]any{"location": b.cfg.InputFile}, graph.SharedLane, StepPrefix)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	demux, err := g.Add("qtdemux", nil, graph.SharedLane, StepPrefix)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	if err := g.Connect(src, demux); err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	return demux, nil
}

// Complete builds the remainder of the graph from the discovered demuxer
// pad and returns the sinks. It runs at most once per Builder.
func (b *Builder) Complete(ctx context.Context, g *graph.Graph, discovered graph.PortRef) ([]*graph.Stage, error) {
	if b.state == Materialized {
		return nil, errors.AlreadyMaterialized()
	}
	b.state = Materialized

	ctx, span := observability.StartSpan(ctx, observability.SpanBuildComplete)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrVariant, string(b.variant))
	observability.SetSpanAttribute(ctx, observability.AttrPoint, b.cfg.Last)

	sinks, err := b.complete(g, discovered, b.log)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrStages, g.Len())
	b.log.Info("graph completed", map[string]interface{}{
		logger.FieldVariant: string(b.variant),
		logger.FieldPoint:   b.cfg.Last,
		"stages":            g.Len(),
		"sinks":             len(sinks),
	})
	return sinks, nil
}

// Plan builds the graph up to the truncation point on a scratch graph
// without changing the builder state. The demuxer pad is assumed to be
// video_0.
func (b *Builder) Plan() (*graph.Graph, error) {
	g := graph.New()
	demux, err := b.Prefix(context.Background(), g)
	if err != nil {
		return nil, err
	}
	if _, err := b.complete(g, demux.Pad("video_0"), logger.Nop()); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *Builder) complete(g *graph.Graph, discovered graph.PortRef, log *logger.Logger) ([]*graph.Stage, error) {
	r := &run{cfg: &b.cfg, g: g, log: log}
	parse, err := r.add("h264parse", map[string]any{"config-interval": -1}, graph.SharedLane, StepParse)
	if err != nil {
		return nil, err
	}
	if err := g.ConnectPads(discovered, parse.Pad("sink")); err != nil {
		return nil, err
	}
	r.lanes = []*graph.Stage{parse}

	for _, s := range b.steps {
		if err := s.build(r); err != nil {
			return nil, err
		}
	}
	return r.attachSinks()
}

// attachSinks terminates every lane tail with the configured sink kind.
func (r *run) attachSinks() ([]*graph.Stage, error) {
	sinks := make([]*graph.Stage, 0, len(r.lanes))
	for i, tail := range r.lanes {
		params := map[string]any{"sync": false}
		if r.cfg.Sink != config.SinkFake {
			params["location"] = sinkLocation(r.cfg.SinkLocation, i, len(r.lanes))
		}
		lane := i
		if len(r.lanes) == 1 {
			lane = graph.SharedLane
		}
		sink, err := r.add(r.cfg.Sink, params, lane, StepSink)
		if err != nil {
			return nil, err
		}
		if sink.Kind() != catalog.KindSink {
			return nil, errors.InvalidConfig(fmt.Sprintf("%q is not a sink", r.cfg.Sink))
		}
		if err := r.g.Connect(tail, sink); err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

// sinkLocation formats a "%d" in location with the lane index when more
// than one terminal exists.
func sinkLocation(location string, lane, lanes int) string {
	if lanes > 1 && containsVerb(location) {
		return fmt.Sprintf(location, lane)
	}
	return location
}

func containsVerb(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '%' {
			if s[i+1] == 'd' {
				return true
			}
			i++
		}
	}
	return false
}
