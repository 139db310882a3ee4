package graph

import (
	"io"

	"go.yaml.in/yaml/v3"
)

// Description is the serializable form of a graph.
type Description struct {
	Stages []StageDescription `yaml:"stages"`
	Links  []string           `yaml:"links"`
	Levels [][]string         `yaml:"levels,omitempty"`
}

// StageDescription is the serializable form of a stage.
type StageDescription struct {
	ID      string         `yaml:"id"`
	Factory string         `yaml:"factory"`
	Kind    string         `yaml:"kind"`
	Lane    *int           `yaml:"lane,omitempty"`
	Step    string         `yaml:"step"`
	Params  map[string]any `yaml:"params,omitempty"`
	Pads    []string       `yaml:"request_pads,omitempty"`
}

// Describe returns the serializable form of g.
func (g *Graph) Describe() Description {
	d := Description{
		Stages: make([]StageDescription, 0, len(g.stages)),
		Links:  make([]string, 0, len(g.links)),
	}
	for _, s := range g.stages {
		sd := StageDescription{
			ID:      s.ID,
			Factory: s.Factory(),
			Kind:    string(s.Kind()),
			Step:    s.Step,
			Params:  s.Params,
			Pads:    s.RequestedPads(),
		}
		if s.Lane != SharedLane {
			lane := s.Lane
			sd.Lane = &lane
		}
		d.Stages = append(d.Stages, sd)
	}
	for _, l := range g.links {
		d.Links = append(d.Links, l.String())
	}
	if levels, err := g.Levels(); err == nil {
		d.Levels = levels
	}
	return d
}

// WriteYAML writes the graph description to w.
func (g *Graph) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g.Describe()); err != nil {
		return err
	}
	return enc.Close()
}
