// Package stats computes the end-of-run statistics from tracker counters
// and writes the run report.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/covaflow/catalog"
	"github.com/kbukum/covaflow/engine"
	"github.com/kbukum/covaflow/graph"
)

// LaneCounters holds the counters of one tracker stage.
type LaneCounters struct {
	Stage             string `yaml:"stage"`
	Lane              int    `yaml:"lane"`
	Dropped           uint64 `yaml:"dropped"`
	DecodedDependency uint64 `yaml:"decoded_dependency"`
	DecodedInference  uint64 `yaml:"decoded_inference"`
}

// Total returns the number of frames the tracker saw.
func (c LaneCounters) Total() uint64 {
	return c.Dropped + c.DecodedDependency + c.DecodedInference
}

// RunStatistics summarizes one run.
type RunStatistics struct {
	RunID   string
	Elapsed time.Duration

	// Lanes is empty when the graph has no trackers.
	Lanes []LaneCounters

	Dropped           uint64
	DecodedDependency uint64
	DecodedInference  uint64

	// DecodeRate is the share of frames that were decoded for any reason
	// and InferenceRate the share that went to inference. Both are NaN when
	// Degenerate is set.
	DecodeRate    float64
	InferenceRate float64
	Degenerate    bool
}

// HasTrackers reports whether tracker counters were collected.
func (s *RunStatistics) HasTrackers() bool { return len(s.Lanes) > 0 }

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Collect reads the tracker counters of every tracker stage in g in lane
// order and computes the run statistics. A zero start yields zero elapsed.
func Collect(r engine.CounterReader, g *graph.Graph, start, stop time.Time) (*RunStatistics, error) {
	s := &RunStatistics{RunID: NewRunID()}
	if !start.IsZero() && stop.After(start) {
		s.Elapsed = stop.Sub(start)
	}

	trackers := g.OfKind(catalog.KindTracker)
	sort.SliceStable(trackers, func(i, j int) bool { return trackers[i].Lane < trackers[j].Lane })
	for _, t := range trackers {
		c := LaneCounters{Stage: t.ID, Lane: t.Lane}
		for name, dst := range map[string]*uint64{
			catalog.CounterDropped:           &c.Dropped,
			catalog.CounterDecodedDependency: &c.DecodedDependency,
			catalog.CounterDecodedInference:  &c.DecodedInference,
		} {
			v, err := r.ReadCounter(t.ID, name)
			if err != nil {
				return nil, fmt.Errorf("reading %s.%s: %w", t.ID, name, err)
			}
			*dst = v
		}
		s.Lanes = append(s.Lanes, c)
		s.Dropped += c.Dropped
		s.DecodedDependency += c.DecodedDependency
		s.DecodedInference += c.DecodedInference
	}
	if s.HasTrackers() {
		s.computeRates()
	}
	return s, nil
}

func (s *RunStatistics) computeRates() {
	total := s.Dropped + s.DecodedDependency + s.DecodedInference
	if total == 0 {
		s.Degenerate = true
		s.DecodeRate = math.NaN()
		s.InferenceRate = math.NaN()
		return
	}
	s.DecodeRate = float64(s.DecodedDependency+s.DecodedInference) / float64(total)
	s.InferenceRate = float64(s.DecodedInference) / float64(total)
}

// Fields returns the statistics as log fields.
func (s *RunStatistics) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"run_id":          s.RunID,
		"elapsed_seconds": s.Elapsed.Seconds(),
	}
	if s.HasTrackers() {
		f["dropped"] = s.Dropped
		f["decoded_dependency"] = s.DecodedDependency
		f["decoded_inference"] = s.DecodedInference
		f["degenerate"] = s.Degenerate
		if !s.Degenerate {
			f["decode_rate"] = s.DecodeRate
			f["inference_rate"] = s.InferenceRate
		}
	}
	return f
}
