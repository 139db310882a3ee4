package engine

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateNull:    "null",
		StateReady:   "ready",
		StatePaused:  "paused",
		StatePlaying: "playing",
		State(9):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: EventStreamDiscovered, Source: "qtdemux_0", Pad: "video_0", Caps: "video/x-h264"},
			"stream-discovered qtdemux_0.video_0 (video/x-h264)"},
		{Event{Kind: EventStateChanged, Source: "pipeline0", Old: StatePaused, New: StatePlaying},
			"state-changed pipeline0 paused -> playing"},
		{Event{Kind: EventError, Source: "nvinfer_0", Err: fmt.Errorf("no model")},
			"error nvinfer_0: no model"},
		{Event{Kind: EventEOS, Source: "pipeline0"}, "eos pipeline0"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestEventFields(t *testing.T) {
	ev := Event{Kind: EventError, Source: "cova_1", Err: fmt.Errorf("socket closed"), Debug: "tracker.c:88"}
	want := map[string]interface{}{
		"event":  "error",
		"source": "cova_1",
		"error":  "socket closed",
		"debug":  "tracker.c:88",
	}
	if diff := cmp.Diff(want, ev.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEventAck(t *testing.T) {
	Event{Kind: EventEOS}.Ack()

	calls := 0
	ev := Event{Kind: EventStreamDiscovered}.WithAck(func() { calls++ })
	ev.Ack()
	if calls != 1 {
		t.Errorf("expected 1 ack, got %d", calls)
	}
}
