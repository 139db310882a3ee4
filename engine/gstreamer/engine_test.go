package gstreamer

import (
	"testing"

	"github.com/kbukum/covaflow/engine"
)

func TestStateMapping(t *testing.T) {
	for _, s := range []engine.State{engine.StateNull, engine.StateReady, engine.StatePaused, engine.StatePlaying} {
		if got := fromGst(toGst(s)); got != s {
			t.Errorf("expected %s, got %s", s, got)
		}
	}
}

func TestToUint64(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    uint64
		wantErr bool
	}{
		{"uint64", uint64(42), 42, false},
		{"uint", uint(7), 7, false},
		{"uint32", uint32(3), 3, false},
		{"int64", int64(9), 9, false},
		{"negative", -1, 0, true},
		{"string", "12", 0, true},
		{"nil", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toUint64(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParamNamesSorted(t *testing.T) {
	got := paramNames(map[string]any{"sync": false, "location": "out.mp4", "caps": "video/x-raw"})
	want := []string{"caps", "location", "sync"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}
