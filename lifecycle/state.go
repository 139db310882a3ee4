package lifecycle

import (
	"fmt"

	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/errors"
)

// State is the controller state.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
	StateTerminatingEOS
	StateTerminatingError
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
	case StateTerminatingEOS:
		return "terminating-eos"
	case StateTerminatingError:
		return "terminating-error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminating reports whether s is one of the terminating states.
func (s State) Terminating() bool {
	return s == StateTerminatingEOS || s == StateTerminatingError
}

var transitions = map[State][]State{
	StateNull:             {StateReady, StatePaused},
	StateReady:            {StatePaused},
	StatePaused:           {StatePlaying, StateTerminatingEOS, StateTerminatingError},
	StatePlaying:          {StateTerminatingEOS, StateTerminatingError},
	StateTerminatingEOS:   {StateNull},
	StateTerminatingError: {StateNull},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if CanTransition(from, to) {
		return nil
	}
	return errors.Internal(fmt.Errorf("illegal transition %s -> %s", from, to))
}

// fromEngine maps an engine state onto the controller states.
func fromEngine(s engine.State) State {
	switch s {
	case engine.StateReady:
		return StateReady
	case engine.StatePaused:
		return StatePaused
	case engine.StatePlaying:
		return StatePlaying
	}
	return StateNull
}

// Observer is notified after every transition.
type Observer func(from, to State)
