package config

import "github.com/spf13/viper"

// defaults lists every recognized key with its default value. Viper only
// resolves environment overrides for keys it knows, so the list doubles as
// the env-bindable key set.
var defaults = map[string]any{
	"name":        "covaflow",
	"environment": "development",
	"debug":       false,

	"logging.level":        "info",
	"logging.format":       "console",
	"logging.output":       "stderr",
	"logging.no_color":     false,
	"logging.timestamp":    true,
	"logging.caller":       false,
	"logging.service_name": "",

	"variant":       "single-lane",
	"input_file":    "",
	"sink":          SinkFake,
	"sink_location": "",
	"last":          "full",
	"queue_size":    10,

	"num_entdec": 1,
	"num_nvdec":  1,
	"num_dnn":    1,
	"num_mask":   1,

	"width":    1280,
	"height":   720,
	"timestep": 4,

	"dnn_batch_size":            1,
	"dnn_pool_size":             4,
	"dnn_batched_push_timeout":  40000,
	"mask_batch_size":           1,
	"mask_pool_size":            4,
	"mask_batched_push_timeout": 40000,
	"nvinfer_dnn_config":        "",
	"nvinfer_mask_config":       "",

	"nvdec_num_extra_surfaces":  0,
	"nvdec_drop_frame_interval": 0,

	"nvvideoconvert_up_output_buffers": 4,
	"bboxcc_cc_threshold":              0,

	"cova_alpha":        1,
	"cova_beta":         1,
	"cova_infer_i":      false,
	"cova_sort_iou":     0.3,
	"cova_sort_maxage":  60,
	"cova_sort_minhits": 30,
	"cova_port":         0,
	"tcpprobe_port":     0,

	"entdec_add_queue":             false,
	"metapreprocess_add_queue":     false,
	"nvvideoconvert_up_add_queue":  false,
	"nvstreammux_mask_add_queue":   false,
	"nvinfer_mask_add_queue":       false,
	"nvstreamdemux_mask_add_queue": false,
	"maskcopy_add_queue":           false,
	"bboxcc_add_queue":             false,
	"cova_add_queue":               false,
	"funnel_add_queue":             false,
	"nvdec_add_queue":              false,
	"identity_add_queue":           false,
	"nvstreammux_dnn_add_queue":    false,
	"nvinfer_dnn_add_queue":        false,
	"nvstreamdemux_dnn_add_queue":  false,
	"nvdsbbox_add_queue":           false,
	"tcpprobe_add_queue":           false,
	"queue_lanes":                  map[string][]int{},

	"telemetry.endpoint":     "",
	"telemetry.insecure":     true,
	"telemetry.sample_ratio": 1.0,

	"aggregator.binary":            "analysis-aggregator",
	"aggregator.scale_factor":      1.4,
	"aggregator.moving_iou":        0.1,
	"aggregator.stationary_iou":    0.5,
	"aggregator.stationary_maxage": 60,
	"aggregator.cuda_device":       "0",
	"aggregator.wait_seconds":      60,
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Keys returns every recognized configuration key.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	return keys
}
