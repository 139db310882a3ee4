package graph

import (
	"fmt"

	"github.com/kbukum/covaflow/catalog"
)

// SharedLane marks a stage that does not belong to a single lane.
const SharedLane = -1

// Stage is one element instance in the graph.
type Stage struct {
	ID      string
	Element *catalog.Element
	Params  map[string]any
	// Lane is the lane index the stage serves, or SharedLane.
	Lane int
	// Step is the build step that created the stage.
	Step string

	next map[string]int
	pads []string
}

// Factory returns the engine factory name.
func (s *Stage) Factory() string { return s.Element.Factory }

// Kind returns the catalog kind.
func (s *Stage) Kind() catalog.Kind { return s.Element.Kind }

// RequestedPads returns the request pads allocated so far, in allocation order.
func (s *Stage) RequestedPads() []string {
	out := make([]string, len(s.pads))
	copy(out, s.pads)
	return out
}

// Pad returns a reference to one of the stage's pads.
func (s *Stage) Pad(name string) PortRef {
	return PortRef{Stage: s.ID, Pad: name}
}

func (s *Stage) requested(pad string) bool {
	for _, p := range s.pads {
		if p == pad {
			return true
		}
	}
	return false
}

// PortRef names a pad on a stage.
type PortRef struct {
	Stage string `yaml:"stage"`
	Pad   string `yaml:"pad"`
}

func (p PortRef) String() string { return p.Stage + "." + p.Pad }

// Link connects a src pad to a sink pad.
type Link struct {
	From PortRef
	To   PortRef
}

func (l Link) String() string { return fmt.Sprintf("%s -> %s", l.From, l.To) }
