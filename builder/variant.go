package builder

import (
	"fmt"
	"strings"

	"github.com/kbukum/covaflow/errors"
)

// Variant selects a topology.
type Variant string

const (
	// SingleLane decodes and infers on one lane.
	SingleLane Variant = "single-lane"
	// TrackingMultiLane splits entropy decoding across lanes and uses
	// trackers to decide which frames need full decode and inference.
	TrackingMultiLane Variant = "tracking-multi-lane"
	// ReplicatedMultiLane replicates decode and inference across lanes
	// without tracking.
	ReplicatedMultiLane Variant = "replicated-multi-lane"
)

// PointFull is the truncation point that builds the whole graph.
const PointFull = "full"

var aliases = map[string]Variant{
	"naive": SingleLane,
	"cova":  TrackingMultiLane,
	"sort":  ReplicatedMultiLane,
}

// Variants returns every variant in a stable order.
func Variants() []Variant {
	return []Variant{SingleLane, TrackingMultiLane, ReplicatedMultiLane}
}

// ParseVariant resolves a variant name or alias.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range Variants() {
		if string(v) == n {
			return v, nil
		}
	}
	if v, ok := aliases[n]; ok {
		return v, nil
	}
	return "", errors.InvalidConfig(fmt.Sprintf("unknown variant %q", name)).
		WithDetail("variants", Variants())
}

// step is one entry of a variant table: the truncation point it completes
// and the function that builds it.
type step struct {
	point string
	build func(*run) error
}

// table is an ordered step list. Standalone tables are short baselines
// selected only by their own truncation point.
type table struct {
	steps      []step
	standalone []table
}

func (t table) points() []string {
	out := make([]string, 0, len(t.steps))
	for _, s := range t.standalone {
		out = append(out, s.points()...)
	}
	for _, s := range t.steps {
		out = append(out, s.point)
	}
	return out
}

// upTo returns the steps to execute for a truncation point.
func (t table) upTo(point string) ([]step, bool) {
	for _, s := range t.standalone {
		if steps, ok := s.upTo(point); ok {
			return steps, true
		}
	}
	for i, s := range t.steps {
		if s.point == point {
			return t.steps[:i+1], true
		}
	}
	return nil, false
}

var tables = map[Variant]table{
	SingleLane:          singleLane,
	TrackingMultiLane:   trackingMultiLane,
	ReplicatedMultiLane: replicatedMultiLane,
}

// Points returns the declared truncation points of a variant in build order.
func Points(v Variant) []string {
	return tables[v].points()
}
