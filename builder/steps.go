package builder

// Capabilities forced after conversion and demuxing.
const (
	CapsRGBA = "video/x-raw(memory:NVMM),format=(string)RGBA"
	CapsNV12 = "video/x-raw(memory:NVMM),format=(string)NV12"
)

// Fixed element settings shared by the variants.
const (
	memTypeDevice   = 0 // cudadec-memtype
	memTypeUnified  = 2 // nvbuf-memory-type
	flagDeltaUnit   = 4096
	baselineDropGOP = 30
	maskScale       = 16
)

// Truncation points.
const (
	PointAvdecOnly         = "avdec-only"
	PointNvdecOnly         = "nvdec-only"
	PointNvinferOnly       = "nvinfer-only"
	PointEntdec            = "entdec"
	PointMetapreprocess    = "metapreprocess"
	PointNvvideoconvertUp  = "nvvideoconvert_up"
	PointNvstreammuxMask   = "nvstreammux_mask"
	PointNvinferMask       = "nvinfer_mask"
	PointNvstreamdemuxMask = "nvstreamdemux_mask"
	PointMaskcopy          = "maskcopy"
	PointBBoxCC            = "bboxcc"
	PointCova              = "cova"
	PointFunnel            = "funnel"
	PointNvdec             = "nvdec"
	PointIdentity          = "identity"
	PointNvstreammuxDNN    = "nvstreammux_dnn"
	PointNvinferDNN        = "nvinfer_dnn"
	PointNvstreamdemuxDNN  = "nvstreamdemux_dnn"
	PointNvdsBBox          = "nvdsbbox"
	PointTCPProbe          = "tcpprobe"
)

func nop(*run) error { return nil }

func (r *run) nvdecParams(dropInterval uint) map[string]any {
	p := map[string]any{
		"cudadec-memtype":    memTypeDevice,
		"num-extra-surfaces": r.cfg.NvdecNumExtraSurfaces,
	}
	if dropInterval > 0 {
		p["drop-frame-interval"] = dropInterval
	}
	return p
}

func (r *run) dnnMuxParams() map[string]any {
	return map[string]any{
		"width":                r.cfg.Width,
		"height":               r.cfg.Height,
		"batch-size":           r.cfg.DNNBatchSize,
		"buffer-pool-size":     r.cfg.DNNPoolSize,
		"batched-push-timeout": r.cfg.DNNBatchedPushTimeout,
		"nvbuf-memory-type":    memTypeUnified,
	}
}

func (r *run) maskMuxParams() map[string]any {
	return map[string]any{
		"width":                r.cfg.Width / maskScale,
		"height":               r.cfg.Height / maskScale * r.cfg.Timestep,
		"batch-size":           r.cfg.MaskBatchSize,
		"buffer-pool-size":     r.cfg.MaskPoolSize,
		"batched-push-timeout": r.cfg.MaskBatchedPushTimeout,
		"nvbuf-memory-type":    memTypeUnified,
	}
}

func (r *run) trackerParams() map[string]any {
	return map[string]any{
		"sort-iou":     r.cfg.CovaSortIOU,
		"sort-maxage":  r.cfg.CovaSortMaxAge,
		"sort-minhits": r.cfg.CovaSortMinHits,
		"port":         r.cfg.CovaPort,
		"infer-i":      r.cfg.CovaInferI,
		"alpha":        r.cfg.CovaAlpha,
		"beta":         r.cfg.CovaBeta,
	}
}

// Steps shared by more than one variant.

func buildInferDNN(r *run) error {
	return r.eachFactory(PointNvinferDNN, "nvinfer", map[string]any{"config-file-path": r.cfg.NvinferDNNConfig})
}

func buildDemuxDNN(r *run) error {
	return r.demux(PointNvstreamdemuxDNN, r.per[PointNvstreammuxDNN], CapsNV12)
}

func buildMuxDNN(r *run) error {
	return r.fanIn(PointNvstreammuxDNN, "num_nvdec", r.cfg.NumNvdec, "num_dnn", r.cfg.NumDNN,
		"nvstreammux", r.dnnMuxParams())
}

func buildBBox(r *run) error {
	return r.eachFactory(PointNvdsBBox, "nvdsbbox", nil)
}

// buildFunnelAll merges every lane into a single funnel.
func buildFunnelAll(r *run) error {
	return r.fanIn(PointFunnel, "lanes", len(r.lanes), "funnels", 1, "funnel", nil)
}
