package config

import (
	"strings"

	"github.com/kbukum/covaflow/validation"
)

// Sink kinds accepted by the sink key.
const (
	SinkFake     = "fakesink"
	SinkFile     = "filesink"
	SinkBBox     = "bboxsink"
	SinkTFRecord = "tfrecordsink"
)

// Pipeline holds every key that shapes the processing graph. Keys live at
// the top level of the config file.
type Pipeline struct {
	Variant      string `yaml:"variant" mapstructure:"variant" validate:"required"`
	InputFile    string `yaml:"input_file" mapstructure:"input_file" validate:"required"`
	Sink         string `yaml:"sink" mapstructure:"sink" validate:"oneof=fakesink filesink bboxsink tfrecordsink"`
	SinkLocation string `yaml:"sink_location" mapstructure:"sink_location"`
	Last         string `yaml:"last" mapstructure:"last" validate:"required"`
	QueueSize    uint   `yaml:"queue_size" mapstructure:"queue_size"`

	NumEntdec int `yaml:"num_entdec" mapstructure:"num_entdec" validate:"gte=1"`
	NumNvdec  int `yaml:"num_nvdec" mapstructure:"num_nvdec" validate:"gte=1"`
	NumDNN    int `yaml:"num_dnn" mapstructure:"num_dnn" validate:"gte=1"`
	NumMask   int `yaml:"num_mask" mapstructure:"num_mask" validate:"gte=1"`

	Width    uint `yaml:"width" mapstructure:"width" validate:"gte=16"`
	Height   uint `yaml:"height" mapstructure:"height" validate:"gte=16"`
	Timestep uint `yaml:"timestep" mapstructure:"timestep" validate:"gte=1"`

	DNNBatchSize           uint   `yaml:"dnn_batch_size" mapstructure:"dnn_batch_size" validate:"gte=1"`
	DNNPoolSize            uint   `yaml:"dnn_pool_size" mapstructure:"dnn_pool_size"`
	DNNBatchedPushTimeout  int    `yaml:"dnn_batched_push_timeout" mapstructure:"dnn_batched_push_timeout"`
	MaskBatchSize          uint   `yaml:"mask_batch_size" mapstructure:"mask_batch_size" validate:"gte=1"`
	MaskPoolSize           uint   `yaml:"mask_pool_size" mapstructure:"mask_pool_size"`
	MaskBatchedPushTimeout int    `yaml:"mask_batched_push_timeout" mapstructure:"mask_batched_push_timeout"`
	NvinferDNNConfig       string `yaml:"nvinfer_dnn_config" mapstructure:"nvinfer_dnn_config"`
	NvinferMaskConfig      string `yaml:"nvinfer_mask_config" mapstructure:"nvinfer_mask_config"`

	NvdecNumExtraSurfaces  uint `yaml:"nvdec_num_extra_surfaces" mapstructure:"nvdec_num_extra_surfaces"`
	NvdecDropFrameInterval uint `yaml:"nvdec_drop_frame_interval" mapstructure:"nvdec_drop_frame_interval"`

	NvvideoconvertUpOutputBuffers uint `yaml:"nvvideoconvert_up_output_buffers" mapstructure:"nvvideoconvert_up_output_buffers"`
	BBoxCCThreshold               uint `yaml:"bboxcc_cc_threshold" mapstructure:"bboxcc_cc_threshold"`

	CovaAlpha       uint    `yaml:"cova_alpha" mapstructure:"cova_alpha"`
	CovaBeta        uint    `yaml:"cova_beta" mapstructure:"cova_beta"`
	CovaInferI      bool    `yaml:"cova_infer_i" mapstructure:"cova_infer_i"`
	CovaSortIOU     float32 `yaml:"cova_sort_iou" mapstructure:"cova_sort_iou" validate:"gte=0,lte=1"`
	CovaSortMaxAge  uint    `yaml:"cova_sort_maxage" mapstructure:"cova_sort_maxage"`
	CovaSortMinHits uint    `yaml:"cova_sort_minhits" mapstructure:"cova_sort_minhits"`
	CovaPort        uint    `yaml:"cova_port" mapstructure:"cova_port" validate:"lte=65535"`
	TCPProbePort    uint    `yaml:"tcpprobe_port" mapstructure:"tcpprobe_port" validate:"lte=65535"`

	Queues     `yaml:",inline" mapstructure:",squash"`
	QueueLanes map[string][]int `yaml:"queue_lanes" mapstructure:"queue_lanes"`
}

// Queues holds the per-step queue insertion flags.
type Queues struct {
	Entdec            bool `yaml:"entdec_add_queue" mapstructure:"entdec_add_queue"`
	Metapreprocess    bool `yaml:"metapreprocess_add_queue" mapstructure:"metapreprocess_add_queue"`
	NvvideoconvertUp  bool `yaml:"nvvideoconvert_up_add_queue" mapstructure:"nvvideoconvert_up_add_queue"`
	NvstreammuxMask   bool `yaml:"nvstreammux_mask_add_queue" mapstructure:"nvstreammux_mask_add_queue"`
	NvinferMask       bool `yaml:"nvinfer_mask_add_queue" mapstructure:"nvinfer_mask_add_queue"`
	NvstreamdemuxMask bool `yaml:"nvstreamdemux_mask_add_queue" mapstructure:"nvstreamdemux_mask_add_queue"`
	Maskcopy          bool `yaml:"maskcopy_add_queue" mapstructure:"maskcopy_add_queue"`
	BBoxCC            bool `yaml:"bboxcc_add_queue" mapstructure:"bboxcc_add_queue"`
	Cova              bool `yaml:"cova_add_queue" mapstructure:"cova_add_queue"`
	Funnel            bool `yaml:"funnel_add_queue" mapstructure:"funnel_add_queue"`
	Nvdec             bool `yaml:"nvdec_add_queue" mapstructure:"nvdec_add_queue"`
	Identity          bool `yaml:"identity_add_queue" mapstructure:"identity_add_queue"`
	NvstreammuxDNN    bool `yaml:"nvstreammux_dnn_add_queue" mapstructure:"nvstreammux_dnn_add_queue"`
	NvinferDNN        bool `yaml:"nvinfer_dnn_add_queue" mapstructure:"nvinfer_dnn_add_queue"`
	NvstreamdemuxDNN  bool `yaml:"nvstreamdemux_dnn_add_queue" mapstructure:"nvstreamdemux_dnn_add_queue"`
	NvdsBBox          bool `yaml:"nvdsbbox_add_queue" mapstructure:"nvdsbbox_add_queue"`
	TCPProbe          bool `yaml:"tcpprobe_add_queue" mapstructure:"tcpprobe_add_queue"`
}

func (q Queues) flags() map[string]bool {
	return map[string]bool{
		"entdec":             q.Entdec,
		"metapreprocess":     q.Metapreprocess,
		"nvvideoconvert_up":  q.NvvideoconvertUp,
		"nvstreammux_mask":   q.NvstreammuxMask,
		"nvinfer_mask":       q.NvinferMask,
		"nvstreamdemux_mask": q.NvstreamdemuxMask,
		"maskcopy":           q.Maskcopy,
		"bboxcc":             q.BBoxCC,
		"cova":               q.Cova,
		"funnel":             q.Funnel,
		"nvdec":              q.Nvdec,
		"identity":           q.Identity,
		"nvstreammux_dnn":    q.NvstreammuxDNN,
		"nvinfer_dnn":        q.NvinferDNN,
		"nvstreamdemux_dnn":  q.NvstreamdemuxDNN,
		"nvdsbbox":           q.NvdsBBox,
		"tcpprobe":           q.TCPProbe,
	}
}

// Steps returns the build steps that accept a queue flag.
func (q Queues) Steps() []string {
	steps := make([]string, 0, 17)
	for step := range q.flags() {
		steps = append(steps, step)
	}
	return steps
}

// AddQueue reports whether a queue follows lane of step. When queue_lanes
// lists the step, only the listed lanes get one.
func (p *Pipeline) AddQueue(step string, lane int) bool {
	if !p.Queues.flags()[step] {
		return false
	}
	lanes, restricted := p.QueueLanes[step]
	if !restricted {
		return true
	}
	for _, l := range lanes {
		if l == lane {
			return true
		}
	}
	return false
}

// ApplyDefaults fills values that can only be derived from other keys.
func (p *Pipeline) ApplyDefaults() {
	p.Variant = strings.ToLower(strings.TrimSpace(p.Variant))
	if p.QueueLanes == nil {
		p.QueueLanes = map[string][]int{}
	}
}

// Validate checks struct tags and the rules that span several keys.
// Divisibility of lane counts is a topology concern checked by the builder.
func (p *Pipeline) Validate() error {
	v := validation.New().Merge("pipeline", validation.Validate(p))
	v.Custom(p.Sink == SinkFake || p.SinkLocation != "",
		"sink_location", "is required when sink is "+p.Sink)

	steps := p.Queues.flags()
	for step, lanes := range p.QueueLanes {
		if _, ok := steps[step]; !ok {
			v.AddError("queue_lanes."+step, "is not a step with a queue flag")
			continue
		}
		for _, l := range lanes {
			v.Custom(l >= 0, "queue_lanes."+step, "lane indices must be non-negative")
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
