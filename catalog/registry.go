package catalog

import (
	"fmt"
	"sort"
)

// Counter names exposed by tracker elements.
const (
	CounterDropped           = "dropped"
	CounterDecodedDependency = "decoded-dependency"
	CounterDecodedInference  = "decoded-inference"
)

// Media formats used as port constraints.
const (
	FormatH264 = "video/x-h264"
	FormatRaw  = "video/x-raw"
)

var (
	srcPad  = PortTemplate{Name: "src", Direction: Src, Presence: Always}
	sinkPad = PortTemplate{Name: "sink", Direction: Sink, Presence: Always}
)

func filter(kind Kind, params map[string]Param) *Element {
	return &Element{Kind: kind, Params: params, Ports: []PortTemplate{sinkPad, srcPad}}
}

func decoder(params map[string]Param) *Element {
	return &Element{
		Kind:   KindDecoder,
		Params: params,
		Ports: []PortTemplate{
			{Name: "sink", Direction: Sink, Presence: Always, Format: FormatH264},
			{Name: "src", Direction: Src, Presence: Always, Format: FormatRaw},
		},
	}
}

func sinkElement() *Element {
	return &Element{
		Kind: KindSink,
		Params: map[string]Param{
			"sync":     {Type: Bool},
			"location": {Type: String},
		},
		Ports: []PortTemplate{sinkPad},
	}
}

var registry = map[string]*Element{
	"filesrc": {
		Kind:   KindSource,
		Params: map[string]Param{"location": {Type: String}},
		Ports:  []PortTemplate{srcPad},
	},
	"qtdemux": {
		Kind: KindDemuxer,
		Ports: []PortTemplate{
			sinkPad,
			{Name: "video_%u", Direction: Src, Presence: Sometimes, Format: FormatH264},
			{Name: "audio_%u", Direction: Src, Presence: Sometimes},
		},
	},
	"h264parse": {
		Kind:   KindParser,
		Params: map[string]Param{"config-interval": {Type: Int}},
		Ports: []PortTemplate{
			{Name: "sink", Direction: Sink, Presence: Always, Format: FormatH264},
			{Name: "src", Direction: Src, Presence: Always, Format: FormatH264},
		},
	},
	"gopsplit": {
		Kind:   KindFanOut,
		Params: map[string]Param{"silent": {Type: Bool}},
		Ports: []PortTemplate{
			sinkPad,
			{Name: "src_%u", Direction: Src, Presence: Request},
		},
	},
	"tee": {
		Kind: KindFanOut,
		Ports: []PortTemplate{
			sinkPad,
			{Name: "src_%u", Direction: Src, Presence: Request},
		},
	},
	"avdec_h264": decoder(map[string]Param{"max-threads": {Type: Int}}),
	"nvv4l2decoder": decoder(map[string]Param{
		"cudadec-memtype":     {Type: Enum},
		"num-extra-surfaces":  {Type: Uint},
		"drop-frame-interval": {Type: Uint},
	}),
	"metapreprocess": {
		Kind: KindPreprocess,
		Params: map[string]Param{
			"timestep": {Type: Uint},
			"gamma":    {Type: Uint},
		},
		Ports: []PortTemplate{
			{Name: "sink", Direction: Sink, Presence: Always, Format: FormatRaw},
			srcPad,
		},
	},
	"nvvideoconvert": filter(KindConverter, map[string]Param{
		"nvbuf-memory-type": {Type: Enum},
		"output-buffers":    {Type: Uint},
	}),
	"capsfilter": filter(KindFormatFilter, map[string]Param{"caps": {Type: Caps}}),
	"nvstreammux": {
		Kind: KindBatchAggregator,
		Params: map[string]Param{
			"width":                {Type: Uint},
			"height":               {Type: Uint},
			"batch-size":           {Type: Uint},
			"buffer-pool-size":     {Type: Uint},
			"batched-push-timeout": {Type: Int},
			"nvbuf-memory-type":    {Type: Enum},
		},
		Ports: []PortTemplate{
			{Name: "sink_%u", Direction: Sink, Presence: Request},
			srcPad,
		},
	},
	"nvinfer": filter(KindInference, map[string]Param{"config-file-path": {Type: String}}),
	"nvstreamdemux": {
		Kind: KindStreamDemuxer,
		Ports: []PortTemplate{
			sinkPad,
			{Name: "src_%u", Direction: Src, Presence: Request},
		},
	},
	"maskcopy": filter(KindConverter, nil),
	"bboxcc":   filter(KindBBoxPostprocess, map[string]Param{"cc-threshold": {Type: Uint}}),
	"cova": {
		Kind: KindTracker,
		Params: map[string]Param{
			"sort-iou":               {Type: Float32},
			"sort-maxage":            {Type: Uint},
			"sort-minhits":           {Type: Uint},
			"port":                   {Type: Uint},
			"infer-i":                {Type: Bool},
			"debug":                  {Type: Bool},
			"alpha":                  {Type: Uint},
			"beta":                   {Type: Uint},
			CounterDropped:           {Type: Uint64, ReadOnly: true},
			CounterDecodedDependency: {Type: Uint64, ReadOnly: true},
			CounterDecodedInference:  {Type: Uint64, ReadOnly: true},
		},
		Ports: []PortTemplate{
			{Name: "sink_mask", Direction: Sink, Presence: Always},
			{Name: "sink_enc", Direction: Sink, Presence: Always, Format: FormatH264},
			{Name: "src", Direction: Src, Presence: Always, Format: FormatH264},
		},
		Counters: []string{CounterDropped, CounterDecodedDependency, CounterDecodedInference},
	},
	"funnel": {
		Kind: KindFanIn,
		Ports: []PortTemplate{
			{Name: "sink_%u", Direction: Sink, Presence: Request},
			srcPad,
		},
	},
	"identity": filter(KindFrameFilter, map[string]Param{"drop-buffer-flags": {Type: Uint}}),
	"tcpprobe": filter(KindProbe, map[string]Param{"port": {Type: Uint}}),
	"nvdsbbox": filter(KindBBoxPostprocess, nil),
	"queue": filter(KindQueue, map[string]Param{
		"max-size-buffers": {Type: Uint},
		"max-size-bytes":   {Type: Uint},
		"max-size-time":    {Type: Uint64},
	}),
	"fakesink":     sinkElement(),
	"filesink":     sinkElement(),
	"bboxsink":     sinkElement(),
	"tfrecordsink": sinkElement(),
}

func init() {
	for factory, e := range registry {
		e.Factory = factory
		if e.Params == nil {
			e.Params = map[string]Param{}
		}
	}
	// fakesink discards buffers and has no location.
	delete(registry["fakesink"].Params, "location")
}

// Lookup returns the descriptor for a factory.
func Lookup(factory string) (*Element, bool) {
	e, ok := registry[factory]
	return e, ok
}

// MustLookup returns the descriptor for a factory and panics when the
// factory is not in the catalog.
func MustLookup(factory string) *Element {
	e, ok := Lookup(factory)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown factory %q", factory))
	}
	return e
}

// Factories returns every known factory name, sorted.
func Factories() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
