package engine

import (
	"fmt"

	"github.com/kbukum/covaflow/logger"
)

// EventKind classifies events delivered by an engine.
type EventKind int

const (
	EventOther EventKind = iota
	EventStreamStart
	EventStreamDiscovered
	EventError
	EventEOS
	EventStateChanged
)

func (k EventKind) String() string {
	switch k {
	case EventStreamStart:
		return "stream-start"
	case EventStreamDiscovered:
		return "stream-discovered"
	case EventError:
		return "error"
	case EventEOS:
		return "eos"
	case EventStateChanged:
		return "state-changed"
	}
	return "other"
}

// Event is one message from the engine.
type Event struct {
	Kind EventKind
	// Source names the stage or graph that raised the event.
	Source string

	// Pad and Caps describe a discovered output pad.
	Pad  string
	Caps string

	// Old and New are set for state changes.
	Old State
	New State

	// Err and Debug are set for errors.
	Err   error
	Debug string

	// ack releases the engine thread that raised a discovery event.
	ack func()
}

// WithAck attaches the function that releases the engine after the
// controller has handled a discovery event.
func (e Event) WithAck(ack func()) Event {
	e.ack = ack
	return e
}

// Ack releases the engine thread waiting on this event. It is safe to call
// on events that do not wait.
func (e Event) Ack() {
	if e.ack != nil {
		e.ack()
	}
}

func (e Event) String() string {
	switch e.Kind {
	case EventStreamDiscovered:
		return fmt.Sprintf("%s %s.%s (%s)", e.Kind, e.Source, e.Pad, e.Caps)
	case EventStateChanged:
		return fmt.Sprintf("%s %s %s -> %s", e.Kind, e.Source, e.Old, e.New)
	case EventError:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Source)
}

// Fields returns the event as log fields.
func (e Event) Fields() map[string]interface{} {
	f := map[string]interface{}{
		logger.FieldEvent:  e.Kind.String(),
		logger.FieldSource: e.Source,
	}
	switch e.Kind {
	case EventStreamDiscovered:
		f[logger.FieldPad] = e.Pad
		f["caps"] = e.Caps
	case EventStateChanged:
		f["old"] = e.Old.String()
		f["new"] = e.New.String()
	case EventError:
		f[logger.FieldError] = fmt.Sprint(e.Err)
		if e.Debug != "" {
			f["debug"] = e.Debug
		}
	}
	return f
}
