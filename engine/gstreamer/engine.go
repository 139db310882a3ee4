package gstreamer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
	"github.com/kbukum/covaflow/logger"
)

// Name is the engine name reported by Name.
const Name = "gstreamer"

const (
	defaultBusPoll = 50 * time.Millisecond
	eventBuffer    = 64
)

var initOnce sync.Once

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithBusPoll sets how long the bus watcher blocks per poll.
func WithBusPoll(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// Engine drives one GStreamer pipeline.
type Engine struct {
	pipeline *gst.Pipeline
	log      *logger.Logger
	poll     time.Duration

	mu       sync.RWMutex
	elements map[string]*gst.Element
	target   engine.State

	events    chan engine.Event
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ engine.Engine = (*Engine)(nil)

// New initializes GStreamer, creates an empty pipeline and starts watching
// its bus.
func New(opts ...Option) (*Engine, error) {
	initOnce.Do(func() { gst.Init(nil) })

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, errors.ElementUnavailable("pipeline", err)
	}
	e := &Engine{
		pipeline: pipeline,
		log:      logger.Get("gstreamer"),
		poll:     defaultBusPoll,
		elements: make(map[string]*gst.Element),
		events:   make(chan engine.Event, eventBuffer),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.wg.Add(1)
	go e.watchBus()
	return e, nil
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return Name }

// TopLevel returns the pipeline name.
func (e *Engine) TopLevel() string { return e.pipeline.GetName() }

// Materialize creates the pending stages and links of g. Elements added
// after the pipeline left the null state are synced to it once linked.
func (e *Engine) Materialize(ctx context.Context, g *graph.Graph) error {
	if err := ctx.Err(); err != nil {
		return errors.Canceled("materialize canceled")
	}
	stages, links := g.Pending()

	created := make([]*gst.Element, 0, len(stages))
	for _, s := range stages {
		el, err := e.create(s)
		if err != nil {
			return err
		}
		created = append(created, el)
	}
	for _, l := range links {
		if err := e.link(g, l); err != nil {
			return err
		}
	}

	e.mu.RLock()
	running := e.target > engine.StateNull
	e.mu.RUnlock()
	if running {
		for _, el := range created {
			if !el.SyncStateWithParent() {
				e.log.Warn("element did not follow pipeline state", logger.Fields(logger.FieldStage, el.GetName()))
			}
		}
	}

	g.MarkMaterialized()
	e.log.Debug("materialized", logger.Fields("stages", len(stages), "links", len(links)))
	return nil
}

func (e *Engine) create(s *graph.Stage) (*gst.Element, error) {
	el, err := gst.NewElementWithName(s.Factory(), s.ID)
	if err != nil {
		return nil, errors.ElementUnavailable(s.Factory(), err)
	}
	for _, name := range paramNames(s.Params) {
		if err := setParam(el, s.Element.Params[name].Type, name, s.Params[name]); err != nil {
			return nil, errors.InvalidParameter(s.Factory(), name, err.Error())
		}
	}
	if err := e.pipeline.Add(el); err != nil {
		return nil, errors.Internal(fmt.Errorf("adding %s to pipeline: %w", s.ID, err))
	}
	if len(s.Element.PortsOf(catalog.Src, catalog.Sometimes)) > 0 {
		if err := e.watchPads(el); err != nil {
			return nil, errors.Internal(fmt.Errorf("watching pads of %s: %w", s.ID, err))
		}
	}

	e.mu.Lock()
	e.elements[s.ID] = el
	e.mu.Unlock()

	e.log.Debug("element created", logger.StageFields(s.ID, string(s.Kind()), s.Lane))
	return el, nil
}

func paramNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// setParam sets one normalized parameter. Caps descriptions are parsed
// into caps; everything else maps onto the property type directly.
func setParam(el *gst.Element, t catalog.ParamType, name string, value any) error {
	if t == catalog.Caps {
		desc, _ := value.(string)
		caps := gst.NewCapsFromString(desc)
		if caps == nil {
			return fmt.Errorf("invalid caps %q", desc)
		}
		return el.SetProperty(name, caps)
	}
	return el.SetProperty(name, value)
}

func (e *Engine) link(g *graph.Graph, l graph.Link) error {
	src, err := e.pad(g, l.From)
	if err != nil {
		return errors.LinkFailed(l.From.String(), l.To.String(), err)
	}
	sink, err := e.pad(g, l.To)
	if err != nil {
		return errors.LinkFailed(l.From.String(), l.To.String(), err)
	}
	if ret := src.Link(sink); ret != gst.PadLinkOK {
		return errors.LinkFailed(l.From.String(), l.To.String(), fmt.Errorf("pad link returned %v", ret))
	}
	e.log.Debug("linked", logger.Fields("from", l.From.String(), "to", l.To.String()))
	return nil
}

// pad returns the engine pad behind ref, requesting it when the template
// is a request template.
func (e *Engine) pad(g *graph.Graph, ref graph.PortRef) (*gst.Pad, error) {
	s, ok := g.Stage(ref.Stage)
	if !ok {
		return nil, fmt.Errorf("unknown stage %s", ref.Stage)
	}
	e.mu.RLock()
	el, ok := e.elements[ref.Stage]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("stage %s is not materialized", ref.Stage)
	}

	tmpl, ok := s.Element.Port(ref.Pad)
	if !ok {
		return nil, fmt.Errorf("%s has no pad %s", s.Factory(), ref.Pad)
	}
	var p *gst.Pad
	if tmpl.Presence == catalog.Request {
		p = el.GetRequestPad(ref.Pad)
	} else {
		p = el.GetStaticPad(ref.Pad)
	}
	if p == nil {
		return nil, fmt.Errorf("pad %s is not available", ref)
	}
	return p, nil
}

// SetState requests a pipeline state change.
func (e *Engine) SetState(ctx context.Context, s engine.State) error {
	e.mu.Lock()
	e.target = s
	e.mu.Unlock()
	if err := e.pipeline.SetState(toGst(s)); err != nil {
		return fmt.Errorf("gstreamer: set state %s: %w", s, err)
	}
	return nil
}

// Next returns the next bus message or discovered pad.
func (e *Engine) Next(ctx context.Context, timeout time.Duration) (engine.Event, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-e.events:
		return ev, true
	case <-t.C:
	case <-ctx.Done():
	case <-e.stop:
	}
	return engine.Event{}, false
}

// ReadCounter reads an unsigned counter property of a stage.
func (e *Engine) ReadCounter(stageID, name string) (uint64, error) {
	e.mu.RLock()
	el, ok := e.elements[stageID]
	e.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("gstreamer: stage %s is not materialized", stageID)
	}
	v, err := el.GetProperty(name)
	if err != nil {
		return 0, fmt.Errorf("gstreamer: reading %s.%s: %w", stageID, name, err)
	}
	return toUint64(v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case int64:
		if x >= 0 {
			return uint64(x), nil
		}
	case int:
		if x >= 0 {
			return uint64(x), nil
		}
	}
	return 0, fmt.Errorf("gstreamer: counter value %v (%T) is not a count", v, v)
}

// Close stops the bus watcher, releases waiting streaming threads and
// brings the pipeline to the null state.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stop)
		e.wg.Wait()
		err = e.pipeline.SetState(gst.StateNull)
	})
	return err
}
