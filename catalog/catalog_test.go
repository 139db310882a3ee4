package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/covaflow/errors"
)

func TestLookup(t *testing.T) {
	e, ok := Lookup("nvstreammux")
	if !ok {
		t.Fatal("expected nvstreammux in catalog")
	}
	if e.Factory != "nvstreammux" {
		t.Errorf("expected factory set by init, got %q", e.Factory)
	}
	if e.Kind != KindBatchAggregator {
		t.Errorf("expected batch-aggregator, got %s", e.Kind)
	}
	if _, ok := Lookup("videotestsrc"); ok {
		t.Error("expected unknown factory to be absent")
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown factory")
		}
	}()
	MustLookup("nope")
}

func TestEveryElementHasKindAndPorts(t *testing.T) {
	for _, f := range Factories() {
		e := MustLookup(f)
		if e.Kind == "" {
			t.Errorf("%s: missing kind", f)
		}
		if len(e.Ports) == 0 {
			t.Errorf("%s: missing ports", f)
		}
		if e.Params == nil {
			t.Errorf("%s: params map must not be nil", f)
		}
	}
}

func TestNormalize(t *testing.T) {
	mux := MustLookup("nvstreammux")
	got, err := mux.Normalize(map[string]any{
		"width":                uint(1280),
		"height":               720,
		"batched-push-timeout": int64(40000),
		"nvbuf-memory-type":    2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"width":                uint(1280),
		"height":               uint(720),
		"batched-push-timeout": 40000,
		"nvbuf-memory-type":    2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalized params mismatch (-want +got):\n%s", diff)
	}

	cova := MustLookup("cova")
	got, err = cova.Normalize(map[string]any{"sort-iou": 0.3, "infer-i": true, "port": uint(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["sort-iou"] != float32(0.3) {
		t.Errorf("expected float32 0.3, got %#v", got["sort-iou"])
	}

	q := MustLookup("queue")
	got, err = q.Normalize(map[string]any{"max-size-time": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["max-size-time"] != uint64(0) {
		t.Errorf("expected uint64 0, got %#v", got["max-size-time"])
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name    string
		factory string
		params  map[string]any
		code    errors.ErrorCode
	}{
		{"unknown key", "nvinfer", map[string]any{"batch-size": 4}, errors.ErrCodeUnknownParameter},
		{"fakesink has no location", "fakesink", map[string]any{"location": "/tmp/x"}, errors.ErrCodeUnknownParameter},
		{"read-only counter", "cova", map[string]any{CounterDropped: uint64(1)}, errors.ErrCodeInvalidParameter},
		{"wrong type", "filesrc", map[string]any{"location": 3}, errors.ErrCodeInvalidParameter},
		{"negative uint", "queue", map[string]any{"max-size-buffers": -1}, errors.ErrCodeInvalidParameter},
		{"bool for int", "h264parse", map[string]any{"config-interval": true}, errors.ErrCodeInvalidParameter},
		{"int overflow", "avdec_h264", map[string]any{"max-threads": int64(1) << 40}, errors.ErrCodeInvalidParameter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MustLookup(tc.factory).Normalize(tc.params)
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestPortTemplateMatches(t *testing.T) {
	tmpl := PortTemplate{Name: "src_%u", Direction: Src, Presence: Request}
	tests := []struct {
		pad  string
		want bool
	}{
		{"src_0", true},
		{"src_12", true},
		{"src_", false},
		{"src_a", false},
		{"sink_0", false},
		{"src_%u", true},
	}
	for _, tc := range tests {
		if got := tmpl.Matches(tc.pad); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.pad, got, tc.want)
		}
	}
	if tmpl.Instance(3) != "src_3" {
		t.Errorf("expected src_3, got %s", tmpl.Instance(3))
	}
}

func TestElementPorts(t *testing.T) {
	demux := MustLookup("qtdemux")
	p, ok := demux.Port("video_0")
	if !ok || p.Presence != Sometimes || p.Format != FormatH264 {
		t.Errorf("unexpected video port %+v", p)
	}
	if len(demux.PortsOf(Src, Sometimes)) != 2 {
		t.Error("expected two sometimes src ports on qtdemux")
	}

	cova := MustLookup("cova")
	if len(cova.PortsOf(Sink, Always)) != 2 {
		t.Error("expected cova to have two always sink ports")
	}
	for _, c := range []string{CounterDropped, CounterDecodedDependency, CounterDecodedInference} {
		if !cova.HasCounter(c) {
			t.Errorf("expected counter %s", c)
		}
	}
	if MustLookup("nvinfer").HasCounter(CounterDropped) {
		t.Error("nvinfer exposes no counters")
	}
}
