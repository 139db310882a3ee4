// Package engine defines what the lifecycle controller needs from a media
// engine: creating the stages and links of a graph, moving between states,
// delivering events and reading counters off stages.
//
// The gstreamer subpackage implements it on GStreamer; testutil provides a
// scripted engine for tests.
package engine

import (
	"context"
	"time"

	"github.com/kbukum/covaflow/graph"
)

// State is an engine state.
type State int

// Engine states in ascending order.
const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// Engine creates and drives a graph.
type Engine interface {
	// Name identifies the engine implementation.
	Name() string
	// Materialize creates every stage and link of g that the engine has not
	// created yet, then marks them materialized. Stages added after the
	// graph started are synced to the engine state.
	Materialize(ctx context.Context, g *graph.Graph) error
	// SetState requests a state change of the top-level graph.
	SetState(ctx context.Context, s State) error
	// Next waits up to timeout for the next event. ok is false when none
	// arrived.
	Next(ctx context.Context, timeout time.Duration) (ev Event, ok bool)
	// ReadCounter reads a read-only counter parameter from a stage.
	ReadCounter(stageID, name string) (uint64, error)
	// TopLevel returns the source name the engine uses for the top-level graph.
	TopLevel() string
	// Close releases engine resources.
	Close() error
}

// CounterReader reads counters from materialized stages.
type CounterReader interface {
	ReadCounter(stageID, name string) (uint64, error)
}
