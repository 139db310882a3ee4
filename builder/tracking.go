package builder

import (
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
)

// trackingMultiLane entropy-decodes GOP slices on num_entdec lanes,
// predicts object masks from compressed metadata, and lets one tracker per
// lane decide which frames need full decode and inference. Three baselines
// measure plain decode or inference throughput on their own.
var trackingMultiLane = table{
	standalone: []table{
		{steps: []step{{PointAvdecOnly, func(r *run) error {
			return r.eachFactory(PointAvdecOnly, "avdec_h264", map[string]any{"max-threads": r.cfg.NumEntdec})
		}}}},
		{steps: []step{{PointNvdecOnly, func(r *run) error {
			return r.eachFactory(PointNvdecOnly, "nvv4l2decoder", r.nvdecParams(0))
		}}}},
		{steps: []step{{PointNvinferOnly, buildInferOnly}}},
	},
	steps: []step{
		{PointEntdec, buildEntdec},
		{PointMetapreprocess, func(r *run) error {
			return r.eachFactory(PointMetapreprocess, "metapreprocess", map[string]any{"timestep": r.cfg.Timestep})
		}},
		{PointNvvideoconvertUp, buildConvertUp},
		{PointNvstreammuxMask, func(r *run) error {
			return r.fanIn(PointNvstreammuxMask, "num_entdec", r.cfg.NumEntdec, "num_mask", r.cfg.NumMask,
				"nvstreammux", r.maskMuxParams())
		}},
		{PointNvinferMask, func(r *run) error {
			return r.eachFactory(PointNvinferMask, "nvinfer", map[string]any{"config-file-path": r.cfg.NvinferMaskConfig})
		}},
		{PointNvstreamdemuxMask, func(r *run) error {
			return r.demux(PointNvstreamdemuxMask, r.per[PointNvstreammuxMask], CapsRGBA)
		}},
		{PointMaskcopy, func(r *run) error {
			return r.eachFactory(PointMaskcopy, "maskcopy", nil)
		}},
		{PointBBoxCC, func(r *run) error {
			return r.eachFactory(PointBBoxCC, "bboxcc", map[string]any{"cc-threshold": r.cfg.BBoxCCThreshold})
		}},
		{PointCova, buildTrackers},
		{PointFunnel, func(r *run) error {
			return r.fanIn(PointFunnel, "num_entdec", r.cfg.NumEntdec, "num_nvdec", r.cfg.NumNvdec, "funnel", nil)
		}},
		{PointNvdec, func(r *run) error {
			return r.eachFactory(PointNvdec, "nvv4l2decoder", r.nvdecParams(0))
		}},
		{PointIdentity, func(r *run) error {
			return r.eachFactory(PointIdentity, "identity", map[string]any{"drop-buffer-flags": flagDeltaUnit})
		}},
		{PointNvstreammuxDNN, buildMuxDNN},
		{PointNvinferDNN, buildInferDNN},
		{PointNvstreamdemuxDNN, buildDemuxDNN},
		{PointTCPProbe, func(r *run) error {
			return r.eachFactory(PointTCPProbe, "tcpprobe", map[string]any{"port": r.cfg.TCPProbePort})
		}},
		{PointFull, nop},
	},
}

// buildInferOnly decodes one frame per GOP and runs inference on it.
func buildInferOnly(r *run) error {
	if err := r.eachFactory(PointNvinferOnly, "nvv4l2decoder", r.nvdecParams(baselineDropGOP)); err != nil {
		return err
	}
	if err := r.fanIn(PointNvinferOnly, "lanes", 1, "batches", 1, "nvstreammux", map[string]any{
		"width":             r.cfg.Width,
		"height":            r.cfg.Height,
		"batch-size":        r.cfg.DNNBatchSize,
		"buffer-pool-size":  r.cfg.DNNPoolSize,
		"nvbuf-memory-type": memTypeUnified,
	}); err != nil {
		return err
	}
	return r.eachFactory(PointNvinferOnly, "nvinfer", map[string]any{"config-file-path": r.cfg.NvinferDNNConfig})
}

// buildEntdec splits the stream into num_entdec lanes. Each lane tees the
// encoded slice so the tracker of that lane can read it later, and
// entropy-decodes the other branch.
func buildEntdec(r *run) error {
	r.tees = make([]*graph.Stage, 0, r.cfg.NumEntdec)
	return r.fanOut(PointEntdec, "gopsplit", nil, r.cfg.NumEntdec, func(lane int) (*graph.Stage, *graph.Stage, error) {
		tee, err := r.add("tee", nil, lane, PointEntdec)
		if err != nil {
			return nil, nil, err
		}
		r.tees = append(r.tees, tee)
		q, err := r.add("queue", r.queueParams(), lane, PointEntdec)
		if err != nil {
			return nil, nil, err
		}
		if err := r.teeInto(tee, q); err != nil {
			return nil, nil, err
		}
		dec, err := r.follow(q, "avdec_h264", map[string]any{"max-threads": 1}, lane, PointEntdec)
		if err != nil {
			return nil, nil, err
		}
		return tee, dec, nil
	})
}

func (r *run) teeInto(tee, to *graph.Stage) error {
	pad, err := r.g.RequestPad(tee, "src_%u")
	if err != nil {
		return err
	}
	return r.g.ConnectPads(tee.Pad(pad), to.Pad("sink"))
}

func buildConvertUp(r *run) error {
	return r.each(PointNvvideoconvertUp, func(lane int, prev *graph.Stage) (*graph.Stage, error) {
		conv, err := r.follow(prev, "nvvideoconvert", map[string]any{
			"nvbuf-memory-type": memTypeUnified,
			"output-buffers":    r.cfg.NvvideoconvertUpOutputBuffers,
		}, lane, PointNvvideoconvertUp)
		if err != nil {
			return nil, err
		}
		return r.follow(conv, "capsfilter", map[string]any{"caps": CapsRGBA}, lane, PointNvvideoconvertUp)
	})
}

// buildTrackers joins lane i's boxes with the encoded stream of tee i.
func buildTrackers(r *run) error {
	if len(r.lanes) != len(r.tees) {
		return errors.ProducerMismatch(PointCova, len(r.lanes), len(r.tees))
	}
	params := r.trackerParams()
	return r.each(PointCova, func(lane int, prev *graph.Stage) (*graph.Stage, error) {
		tracker, err := r.add("cova", params, lane, PointCova)
		if err != nil {
			return nil, err
		}
		if err := r.g.ConnectPads(prev.Pad("src"), tracker.Pad("sink_mask")); err != nil {
			return nil, err
		}
		q, err := r.add("queue", unboundedQueue(), lane, PointCova)
		if err != nil {
			return nil, err
		}
		if err := r.teeInto(r.tees[lane], q); err != nil {
			return nil, err
		}
		if err := r.g.ConnectPads(q.Pad("src"), tracker.Pad("sink_enc")); err != nil {
			return nil, err
		}
		return tracker, nil
	})
}
