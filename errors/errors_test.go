package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_DerivesRetryAndExit(t *testing.T) {
	err := New(ErrCodeEngineError, "boom")
	if !err.Retryable {
		t.Error("ENGINE_ERROR should be retryable")
	}
	if err.ExitCode != ExitRuntime {
		t.Errorf("expected exit %d, got %d", ExitRuntime, err.ExitCode)
	}

	cfg := New(ErrCodeInvalidConfig, "bad")
	if cfg.Retryable {
		t.Error("INVALID_CONFIG should not be retryable")
	}
	if cfg.ExitCode != ExitConfig {
		t.Errorf("expected exit %d, got %d", ExitConfig, cfg.ExitCode)
	}
}

func TestTopologyMismatch_NamesCounts(t *testing.T) {
	err := TopologyMismatch("nvstreammux_mask", "num_entdec", 3, "num_mask", 2)
	if err.Code != ErrCodeTopologyMismatch {
		t.Fatalf("expected TOPOLOGY_MISMATCH, got %s", err.Code)
	}
	for _, want := range []string{"num_entdec=3", "num_mask=2", "nvstreammux_mask"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
	if err.Details["num_entdec"] != 3 || err.Details["num_mask"] != 2 {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if err.Retryable {
		t.Error("topology errors are never retryable")
	}
}

func TestUnknownTruncation_Details(t *testing.T) {
	err := UnknownTruncation("single-lane", "bogus", []string{"nvdec", "full"})
	if err.Details["point"] != "bogus" {
		t.Errorf("expected point=bogus, got %v", err.Details["point"])
	}
	if err.ExitCode != ExitConfig {
		t.Errorf("expected config exit code, got %d", err.ExitCode)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("no such factory")
	err := ElementUnavailable("nvinfer", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if !strings.Contains(err.Error(), "cause: no such factory") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("building: %w", InvalidTopology("cycle"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError through wrap")
	}
	if appErr.Code != ErrCodeInvalidTopology {
		t.Errorf("expected INVALID_TOPOLOGY, got %s", appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeInvalidTopology) {
		t.Error("HasCode should see through wrapping")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeInvalidTopology) {
		t.Error("plain errors have no code")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", fmt.Errorf("x"), ExitRuntime},
		{"startup", EngineStartup(nil), ExitStartup},
		{"topology", TopologyMismatch("b", "n", 3, "g", 2), ExitTopology},
		{"canceled", Canceled("interrupt"), ExitOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestWithDetails_Merges(t *testing.T) {
	err := InvalidConfig("x").WithDetail("a", 1).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}
