package builder

// singleLane decodes and infers the whole stream on one lane.
var singleLane = table{
	steps: []step{
		{PointNvdec, func(r *run) error {
			return r.eachFactory(PointNvdec, "nvv4l2decoder", r.nvdecParams(r.cfg.NvdecDropFrameInterval))
		}},
		{PointNvstreammuxDNN, func(r *run) error {
			return r.fanIn(PointNvstreammuxDNN, "lanes", 1, "batches", 1, "nvstreammux", r.dnnMuxParams())
		}},
		{PointNvinferDNN, buildInferDNN},
		{PointNvstreamdemuxDNN, buildDemuxDNN},
		{PointNvdsBBox, buildBBox},
		{PointFull, nop},
	},
}
