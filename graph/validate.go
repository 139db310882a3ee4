package graph

import (
	"fmt"
	"strings"

	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/errors"
)

// Levels groups stages by dependency depth using Kahn's algorithm. Level 0
// holds stages with no upstream link. Within a level stages keep creation
// order. A cycle fails with INVALID_TOPOLOGY.
func (g *Graph) Levels() ([][]string, error) {
	inDegree := make(map[string]int, len(g.stages))
	dependents := make(map[string][]string)
	for _, s := range g.stages {
		inDegree[s.ID] = 0
	}
	for _, l := range g.links {
		inDegree[l.To.Stage]++
		dependents[l.From.Stage] = append(dependents[l.From.Stage], l.To.Stage)
	}

	order := make(map[string]int, len(g.stages))
	var queue []string
	for i, s := range g.stages {
		order[s.ID] = i
		if inDegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		seen := make(map[string]bool)
		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 && !seen[dep] {
					seen[dep] = true
					next = append(next, dep)
				}
			}
		}
		sortByOrder(next, order)
		queue = next
	}

	if visited != len(g.stages) {
		return nil, errors.InvalidTopology(fmt.Sprintf("cycle detected, ordered %d of %d stages", visited, len(g.stages)))
	}
	return levels, nil
}

func sortByOrder(ids []string, order map[string]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && order[ids[j]] < order[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Validate checks the graph invariants that must hold before the engine
// may run it:
//   - the graph is acyclic
//   - every always-present sink pad is linked
//   - every allocated request pad is linked
//   - every non-source stage has an upstream link
//   - no stage other than a sink leaves its output unconnected
func (g *Graph) Validate() error {
	if _, err := g.Levels(); err != nil {
		return err
	}

	var problems []string
	for _, s := range g.stages {
		for _, p := range s.Element.PortsOf(catalog.Sink, catalog.Always) {
			if !g.linked[s.Pad(p.Name)] {
				problems = append(problems, fmt.Sprintf("%s is not linked", s.Pad(p.Name)))
			}
		}
		for _, pad := range s.pads {
			if !g.linked[s.Pad(pad)] {
				problems = append(problems, fmt.Sprintf("request pad %s is not linked", s.Pad(pad)))
			}
		}
		if s.Kind() != catalog.KindSource && !g.hasUpstream(s) {
			problems = append(problems, fmt.Sprintf("%s has no upstream link", s.ID))
		}
	}
	for _, s := range g.Terminals() {
		problems = append(problems, fmt.Sprintf("%s (%s) is not terminated by a sink", s.ID, s.Kind()))
	}

	if len(problems) > 0 {
		return errors.InvalidTopology(strings.Join(problems, "; ")).WithDetail("problems", problems)
	}
	return nil
}

func (g *Graph) hasUpstream(s *Stage) bool {
	for _, l := range g.links {
		if l.To.Stage == s.ID {
			return true
		}
	}
	return false
}
