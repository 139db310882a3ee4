package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/covaflow/errors"
)

// Kind classifies what an element does in the graph.
type Kind string

const (
	KindSource          Kind = "source"
	KindDemuxer         Kind = "demuxer"
	KindParser          Kind = "parser"
	KindDecoder         Kind = "decoder"
	KindFanOut          Kind = "fan-out"
	KindFanIn           Kind = "fan-in"
	KindBatchAggregator Kind = "batch-aggregator"
	KindInference       Kind = "inference"
	KindStreamDemuxer   Kind = "stream-demuxer"
	KindFormatFilter    Kind = "format-filter"
	KindConverter       Kind = "converter"
	KindPreprocess      Kind = "preprocess"
	KindFrameFilter     Kind = "frame-filter"
	KindBBoxPostprocess Kind = "bbox-postprocess"
	KindTracker         Kind = "tracker"
	KindProbe           Kind = "probe"
	KindQueue           Kind = "queue"
	KindSink            Kind = "sink"
)

// ParamType is the value type a parameter accepts.
type ParamType int

const (
	Int ParamType = iota
	Uint
	Int64
	Uint64
	Float32
	Bool
	String
	// Caps is a caps description such as "video/x-raw,format=RGBA".
	Caps
	// Enum is an engine enumeration set by its integer value.
	Enum
)

var paramTypeNames = map[ParamType]string{
	Int: "int", Uint: "uint", Int64: "int64", Uint64: "uint64",
	Float32: "float32", Bool: "bool", String: "string", Caps: "caps", Enum: "enum",
}

func (t ParamType) String() string {
	if n, ok := paramTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// Param describes one parameter in an element schema.
type Param struct {
	Type     ParamType
	ReadOnly bool
}

// Direction is the data-flow direction of a port.
type Direction int

const (
	Src Direction = iota
	Sink
)

func (d Direction) String() string {
	if d == Src {
		return "src"
	}
	return "sink"
}

// Presence says when a port exists.
type Presence int

const (
	// Always ports exist from creation.
	Always Presence = iota
	// Sometimes ports appear at runtime, e.g. once a demuxer finds a stream.
	Sometimes
	// Request ports are allocated on demand, one per lane.
	Request
)

func (p Presence) String() string {
	switch p {
	case Always:
		return "always"
	case Sometimes:
		return "sometimes"
	default:
		return "request"
	}
}

// PortTemplate describes a port or a family of ports ("sink_%u").
// Format is a media-type constraint checked when two constrained ports
// are linked; it never transforms data.
type PortTemplate struct {
	Name      string
	Direction Direction
	Presence  Presence
	Format    string
}

// Matches reports whether pad is an instance of the template.
func (p PortTemplate) Matches(pad string) bool {
	if p.Name == pad {
		return true
	}
	prefix, ok := strings.CutSuffix(p.Name, "%u")
	if !ok || !strings.HasPrefix(pad, prefix) {
		return false
	}
	rest := pad[len(prefix):]
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Instance returns the concrete pad name for index i of a templated port.
func (p PortTemplate) Instance(i int) string {
	return strings.Replace(p.Name, "%u", fmt.Sprint(i), 1)
}

// Element describes one engine factory.
type Element struct {
	Factory  string
	Kind     Kind
	Params   map[string]Param
	Ports    []PortTemplate
	Counters []string
}

// Port returns the template that pad instantiates.
func (e *Element) Port(pad string) (PortTemplate, bool) {
	for _, p := range e.Ports {
		if p.Matches(pad) {
			return p, true
		}
	}
	return PortTemplate{}, false
}

// PortsOf returns the templates with the given direction and presence.
func (e *Element) PortsOf(dir Direction, presence Presence) []PortTemplate {
	var out []PortTemplate
	for _, p := range e.Ports {
		if p.Direction == dir && p.Presence == presence {
			out = append(out, p)
		}
	}
	return out
}

// HasCounter reports whether the element exposes the named counter.
func (e *Element) HasCounter(name string) bool {
	for _, c := range e.Counters {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize checks params against the schema and converts every value to
// the canonical Go type for its ParamType: int, uint, int64, uint64,
// float32, bool or string (caps are kept as their string description,
// enums as int).
func (e *Element) Normalize(params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, name := range sortedKeys(params) {
		param, ok := e.Params[name]
		if !ok {
			return nil, errors.UnknownParameter(e.Factory, name)
		}
		if param.ReadOnly {
			return nil, errors.InvalidParameter(e.Factory, name, "parameter is read-only")
		}
		v, err := convert(param.Type, params[name])
		if err != nil {
			return nil, errors.InvalidParameter(e.Factory, name, err.Error())
		}
		out[name] = v
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
