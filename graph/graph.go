package graph

import (
	"fmt"

	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/errors"
)

// Graph is an ordered set of stages and the links between them.
type Graph struct {
	stages []*Stage
	byID   map[string]*Stage
	links  []Link
	linked map[PortRef]bool
	ids    map[string]int

	// materialized counts of stages and links already created by the engine
	doneStages int
	doneLinks  int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byID:   make(map[string]*Stage),
		linked: make(map[PortRef]bool),
		ids:    make(map[string]int),
	}
}

// Add creates a stage for factory with validated params. Stage IDs are
// "<factory>_<n>" with n counting per factory from zero.
func (g *Graph) Add(factory string, params map[string]any, lane int, step string) (*Stage, error) {
	elem, ok := catalog.Lookup(factory)
	if !ok {
		return nil, errors.InvalidTopology(fmt.Sprintf("element %q is not in the catalog", factory))
	}
	norm, err := elem.Normalize(params)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s_%d", factory, g.ids[factory])
	g.ids[factory]++

	s := &Stage{
		ID:      id,
		Element: elem,
		Params:  norm,
		Lane:    lane,
		Step:    step,
		next:    make(map[string]int),
	}
	g.stages = append(g.stages, s)
	g.byID[id] = s
	return s, nil
}

// Stage returns the stage with the given ID.
func (g *Graph) Stage(id string) (*Stage, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// Stages returns all stages in creation order.
func (g *Graph) Stages() []*Stage {
	out := make([]*Stage, len(g.stages))
	copy(out, g.stages)
	return out
}

// Links returns all links in creation order.
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// Len returns the number of stages.
func (g *Graph) Len() int { return len(g.stages) }

// RequestPad allocates the next pad of a request template on s.
func (g *Graph) RequestPad(s *Stage, template string) (string, error) {
	var tmpl *catalog.PortTemplate
	for i := range s.Element.Ports {
		if s.Element.Ports[i].Name == template {
			tmpl = &s.Element.Ports[i]
			break
		}
	}
	if tmpl == nil || tmpl.Presence != catalog.Request {
		return "", errors.InvalidTopology(fmt.Sprintf("%s has no request template %q", s.ID, template))
	}
	pad := tmpl.Instance(s.next[template])
	s.next[template]++
	s.pads = append(s.pads, pad)
	return pad, nil
}

// Connect links the static "src" pad of from to the static "sink" pad of to.
func (g *Graph) Connect(from, to *Stage) error {
	return g.ConnectPads(from.Pad("src"), to.Pad("sink"))
}

// ConnectPads links two pads. Both pads must exist on their elements with
// the right direction, request pads must have been allocated, and neither
// pad may already be linked.
func (g *Graph) ConnectPads(from, to PortRef) error {
	src, err := g.resolve(from, catalog.Src)
	if err != nil {
		return err
	}
	dst, err := g.resolve(to, catalog.Sink)
	if err != nil {
		return err
	}
	if src.Format != "" && dst.Format != "" && src.Format != dst.Format {
		return errors.InvalidTopology(fmt.Sprintf("cannot link %s (%s) to %s (%s)", from, src.Format, to, dst.Format))
	}
	for _, p := range []PortRef{from, to} {
		if g.linked[p] {
			return errors.InvalidTopology(fmt.Sprintf("pad %s is already linked", p))
		}
	}
	g.linked[from] = true
	g.linked[to] = true
	g.links = append(g.links, Link{From: from, To: to})
	return nil
}

func (g *Graph) resolve(ref PortRef, dir catalog.Direction) (catalog.PortTemplate, error) {
	s, ok := g.byID[ref.Stage]
	if !ok {
		return catalog.PortTemplate{}, errors.InvalidTopology(fmt.Sprintf("unknown stage %q", ref.Stage))
	}
	tmpl, ok := s.Element.Port(ref.Pad)
	if !ok || tmpl.Direction != dir {
		return tmpl, errors.InvalidTopology(fmt.Sprintf("%s has no %s pad %q", s.ID, dir, ref.Pad))
	}
	if tmpl.Presence == catalog.Request && !s.requested(ref.Pad) {
		return tmpl, errors.InvalidTopology(fmt.Sprintf("request pad %s was not allocated", ref))
	}
	return tmpl, nil
}

// Linked reports whether a pad is linked.
func (g *Graph) Linked(ref PortRef) bool { return g.linked[ref] }

// LinkInto returns the link that feeds the given sink pad.
func (g *Graph) LinkInto(to PortRef) (Link, bool) {
	for _, l := range g.links {
		if l.To == to {
			return l, true
		}
	}
	return Link{}, false
}

// LinksFrom returns the links leaving a stage, in creation order.
func (g *Graph) LinksFrom(stageID string) []Link {
	var out []Link
	for _, l := range g.links {
		if l.From.Stage == stageID {
			out = append(out, l)
		}
	}
	return out
}

// OfKind returns the stages of a kind in creation order.
func (g *Graph) OfKind(kind catalog.Kind) []*Stage {
	var out []*Stage
	for _, s := range g.stages {
		if s.Kind() == kind {
			out = append(out, s)
		}
	}
	return out
}

// Terminals returns the non-sink stages whose output goes nowhere.
func (g *Graph) Terminals() []*Stage {
	var out []*Stage
	for _, s := range g.stages {
		if s.Kind() != catalog.KindSink && g.dangling(s) {
			out = append(out, s)
		}
	}
	return out
}

func (g *Graph) dangling(s *Stage) bool {
	for _, p := range s.Element.PortsOf(catalog.Src, catalog.Always) {
		if g.linked[s.Pad(p.Name)] {
			return false
		}
	}
	return len(g.LinksFrom(s.ID)) == 0
}

// Pending returns the stages and links the engine has not created yet.
func (g *Graph) Pending() ([]*Stage, []Link) {
	stages := append([]*Stage(nil), g.stages[g.doneStages:]...)
	links := append([]Link(nil), g.links[g.doneLinks:]...)
	return stages, links
}

// MarkMaterialized records that every current stage and link exists in the engine.
func (g *Graph) MarkMaterialized() {
	g.doneStages = len(g.stages)
	g.doneLinks = len(g.links)
}
