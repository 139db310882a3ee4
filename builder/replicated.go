package builder

import "github.com/kbukum/covaflow/graph"

// replicatedMultiLane splits the stream by GOP across num_nvdec decoders
// and batches the decoded lanes into num_dnn inference lanes.
var replicatedMultiLane = table{
	steps: []step{
		{PointNvdec, func(r *run) error {
			return r.fanOut(PointNvdec, "gopsplit", nil, r.cfg.NumNvdec, func(lane int) (*graph.Stage, *graph.Stage, error) {
				dec, err := r.add("nvv4l2decoder", r.nvdecParams(r.cfg.NvdecDropFrameInterval), lane, PointNvdec)
				return dec, dec, err
			})
		}},
		{PointNvstreammuxDNN, buildMuxDNN},
		{PointNvinferDNN, buildInferDNN},
		{PointNvstreamdemuxDNN, buildDemuxDNN},
		{PointNvdsBBox, buildBBox},
		{PointFunnel, buildFunnelAll},
		{PointFull, nop},
	},
}
