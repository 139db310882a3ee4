// Package testutil provides a scripted engine for controller tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/graph"
)

// TopLevel is the source name the mock uses for the top-level graph.
const TopLevel = "pipeline0"

// MockEngine records what the controller asks for and replays scripted
// events. Events queued under OnState are released when that state is
// requested.
type MockEngine struct {
	mu sync.Mutex

	// Stages and Links hold what was materialized, in order.
	Stages []*graph.Stage
	Links  []graph.Link
	// Requested holds every requested state.
	Requested []engine.State
	// Ops is an ordered log of materialize, ack, state and close calls.
	Ops []string
	// Counters serves ReadCounter by stage ID and counter name.
	Counters map[string]map[string]uint64

	// OnState scripts the events emitted after a state request.
	OnState map[engine.State][]engine.Event
	// FailState makes SetState fail for a state.
	FailState map[engine.State]error
	// FailMaterialize makes Materialize fail.
	FailMaterialize error

	queue  []engine.Event
	closed bool
}

var _ engine.Engine = (*MockEngine)(nil)

// NewMockEngine creates a mock with empty scripts.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Counters:  make(map[string]map[string]uint64),
		OnState:   make(map[engine.State][]engine.Event),
		FailState: make(map[engine.State]error),
	}
}

// Name implements engine.Engine.
func (m *MockEngine) Name() string { return "mock" }

// TopLevel implements engine.Engine.
func (m *MockEngine) TopLevel() string { return TopLevel }

// Push queues events for Next.
func (m *MockEngine) Push(evs ...engine.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(evs...)
}

func (m *MockEngine) push(evs ...engine.Event) {
	for _, ev := range evs {
		if ev.Kind == engine.EventStreamDiscovered {
			desc := fmt.Sprintf("ack %s.%s", ev.Source, ev.Pad)
			ev = ev.WithAck(func() { m.log(desc) })
		}
		m.queue = append(m.queue, ev)
	}
}

func (m *MockEngine) log(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, op)
}

// Materialize implements engine.Engine.
func (m *MockEngine) Materialize(_ context.Context, g *graph.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMaterialize != nil {
		return m.FailMaterialize
	}
	stages, links := g.Pending()
	m.Stages = append(m.Stages, stages...)
	m.Links = append(m.Links, links...)
	g.MarkMaterialized()
	m.Ops = append(m.Ops, fmt.Sprintf("materialize %d/%d", len(stages), len(links)))
	return nil
}

// SetState implements engine.Engine.
func (m *MockEngine) SetState(_ context.Context, s engine.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requested = append(m.Requested, s)
	m.Ops = append(m.Ops, "state "+s.String())
	if err := m.FailState[s]; err != nil {
		return err
	}
	m.push(m.OnState[s]...)
	return nil
}

// Next implements engine.Engine. It returns immediately when the queue is
// empty so tests never wait on the timeout.
func (m *MockEngine) Next(ctx context.Context, _ time.Duration) (engine.Event, bool) {
	if ctx.Err() != nil {
		return engine.Event{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return engine.Event{}, false
	}
	ev := m.queue[0]
	m.queue = m.queue[1:]
	return ev, true
}

// ReadCounter implements engine.Engine.
func (m *MockEngine) ReadCounter(stageID, name string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.created(stageID) {
		return 0, fmt.Errorf("stage %s was not materialized", stageID)
	}
	v, ok := m.Counters[stageID][name]
	if !ok {
		return 0, fmt.Errorf("stage %s has no counter %q", stageID, name)
	}
	return v, nil
}

func (m *MockEngine) created(id string) bool {
	for _, s := range m.Stages {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SetCounters sets the counters of a stage.
func (m *MockEngine) SetCounters(stageID string, counters map[string]uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[stageID] = counters
}

// Close implements engine.Engine.
func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.Ops = append(m.Ops, "close")
	return nil
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pending returns the number of queued events.
func (m *MockEngine) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Helpers for scripting events.

// StateChanged is a state change of the top-level graph.
func StateChanged(from, to engine.State) engine.Event {
	return engine.Event{Kind: engine.EventStateChanged, Source: TopLevel, Old: from, New: to}
}

// StreamStart is a stream-start message.
func StreamStart() engine.Event {
	return engine.Event{Kind: engine.EventStreamStart, Source: TopLevel}
}

// Discovered is a new output pad on a stage.
func Discovered(stageID, pad, caps string) engine.Event {
	return engine.Event{Kind: engine.EventStreamDiscovered, Source: stageID, Pad: pad, Caps: caps}
}

// EOS is an end-of-stream message from source.
func EOS(source string) engine.Event {
	return engine.Event{Kind: engine.EventEOS, Source: source}
}

// Error is an error message from source.
func Error(source string, err error) engine.Event {
	return engine.Event{Kind: engine.EventError, Source: source, Err: err, Debug: "scripted"}
}
