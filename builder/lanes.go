package builder

import (
	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
	"github.com/kbukum/covaflow/logger"
)

// run is the state of one pass over a step table. lanes holds the current
// tail of every lane in lane order.
type run struct {
	cfg   *config.Pipeline
	g     *graph.Graph
	log   *logger.Logger
	lanes []*graph.Stage

	// tees feed the encoded stream of entropy-decoder lane i to tracker i.
	tees []*graph.Stage
	// per records the group size chosen at each fan-in for the matching demux.
	per map[string]int
}

func (r *run) add(factory string, params map[string]any, lane int, step string) (*graph.Stage, error) {
	s, err := r.g.Add(factory, params, lane, step)
	if err != nil {
		return nil, err
	}
	r.log.Debug("stage created", logger.StageFields(s.ID, string(s.Kind()), lane))
	return s, nil
}

// follow adds a stage and links prev to it.
func (r *run) follow(prev *graph.Stage, factory string, params map[string]any, lane int, step string) (*graph.Stage, error) {
	s, err := r.add(factory, params, lane, step)
	if err != nil {
		return nil, err
	}
	if err := r.g.Connect(prev, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *run) queueParams() map[string]any {
	return map[string]any{
		"max-size-buffers": r.cfg.QueueSize,
		"max-size-bytes":   0,
		"max-size-time":    0,
	}
}

// unboundedQueue holds buffers without limit.
func unboundedQueue() map[string]any {
	return map[string]any{
		"max-size-buffers": 0,
		"max-size-bytes":   0,
		"max-size-time":    0,
	}
}

// tail appends a queue after s when the step's queue flag covers the lane.
func (r *run) tail(s *graph.Stage, step string, lane int) (*graph.Stage, error) {
	if !r.cfg.AddQueue(step, lane) {
		return s, nil
	}
	return r.follow(s, "queue", r.queueParams(), s.Lane, step)
}

// each appends one stage per lane, built by mk from the lane's tail.
func (r *run) each(step string, mk func(lane int, prev *graph.Stage) (*graph.Stage, error)) error {
	next := make([]*graph.Stage, len(r.lanes))
	for i, prev := range r.lanes {
		s, err := mk(i, prev)
		if err != nil {
			return err
		}
		if next[i], err = r.tail(s, step, i); err != nil {
			return err
		}
	}
	r.lanes = next
	return nil
}

// eachFactory appends one stage of factory to every lane.
func (r *run) eachFactory(step, factory string, params map[string]any) error {
	return r.each(step, func(lane int, prev *graph.Stage) (*graph.Stage, error) {
		return r.follow(prev, factory, params, lane, step)
	})
}

// fanOut splits the single current lane into n lanes through a request-pad
// element. mk builds the chain for lane i and returns its first and last
// stage; split output i feeds the first.
func (r *run) fanOut(step, factory string, params map[string]any, n int,
	mk func(lane int) (head, last *graph.Stage, err error)) error {
	if len(r.lanes) != 1 {
		return errors.ProducerMismatch(step, len(r.lanes), 1)
	}
	split, err := r.follow(r.lanes[0], factory, params, graph.SharedLane, step)
	if err != nil {
		return err
	}
	next := make([]*graph.Stage, n)
	for i := 0; i < n; i++ {
		pad, err := r.g.RequestPad(split, "src_%u")
		if err != nil {
			return err
		}
		head, last, err := mk(i)
		if err != nil {
			return err
		}
		if err := r.g.ConnectPads(split.Pad(pad), head.Pad("sink")); err != nil {
			return err
		}
		if next[i], err = r.tail(last, step, i); err != nil {
			return err
		}
	}
	r.lanes = next
	return nil
}

// fanIn merges the current lanes into groups combiners. totalName names the
// configured lane count the current list must match; lanes i*per through
// (i+1)*per-1 feed combiner i on request pads in lane order.
func (r *run) fanIn(step, totalName string, total int, groupsName string, groups int,
	factory string, params map[string]any) error {
	if groups <= 0 || total%groups != 0 {
		return errors.TopologyMismatch(step, totalName, total, groupsName, groups)
	}
	per := total / groups
	if len(r.lanes) != groups*per {
		return errors.ProducerMismatch(step, len(r.lanes), groups*per)
	}
	next := make([]*graph.Stage, groups)
	for gi := 0; gi < groups; gi++ {
		lane := gi
		if groups == 1 {
			lane = graph.SharedLane
		}
		combiner, err := r.add(factory, params, lane, step)
		if err != nil {
			return err
		}
		for _, prev := range r.lanes[gi*per : (gi+1)*per] {
			pad, err := r.g.RequestPad(combiner, "sink_%u")
			if err != nil {
				return err
			}
			if err := r.g.ConnectPads(prev.Pad("src"), combiner.Pad(pad)); err != nil {
				return err
			}
		}
		if next[gi], err = r.tail(combiner, step, gi); err != nil {
			return err
		}
	}
	if r.per == nil {
		r.per = make(map[string]int)
	}
	r.per[step] = per
	r.lanes = next
	return nil
}

// demux splits every batched lane back into per lanes, each through a
// capsfilter. Lane indices after the split match those before the fan-in.
func (r *run) demux(step string, per int, caps string) error {
	next := make([]*graph.Stage, 0, len(r.lanes)*per)
	for gi, prev := range r.lanes {
		d, err := r.follow(prev, "nvstreamdemux", nil, gi, step)
		if err != nil {
			return err
		}
		for i := 0; i < per; i++ {
			lane := gi*per + i
			pad, err := r.g.RequestPad(d, "src_%u")
			if err != nil {
				return err
			}
			cf, err := r.add("capsfilter", map[string]any{"caps": caps}, lane, step)
			if err != nil {
				return err
			}
			if err := r.g.ConnectPads(d.Pad(pad), cf.Pad("sink")); err != nil {
				return err
			}
			t, err := r.tail(cf, step, lane)
			if err != nil {
				return err
			}
			next = append(next, t)
		}
	}
	r.lanes = next
	return nil
}
