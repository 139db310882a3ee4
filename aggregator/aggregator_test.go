package aggregator_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/covaflow/aggregator"
	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/process"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.NumEntdec = 4
	cfg.Aggregator = config.Aggregator{
		Binary:           "analysis-aggregator",
		ScaleFactor:      1.4,
		MovingIOU:        0.1,
		StationaryIOU:    0.5,
		StationaryMaxAge: 60,
		CUDADevice:       "1",
	}
	return cfg
}

func TestArgs(t *testing.T) {
	opts := aggregator.NewOptions(testConfig(), "/data/out", 41000, 41001)

	want := []string{
		"/data/out", "41000", "41001",
		"--num-tracker", "4",
		"--scale-factor", "1.4",
		"--moving-iou", "0.1",
		"--stationary-iou", "0.5",
		"--stationary-maxage", "60",
	}
	if diff := cmp.Diff(want, opts.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"CUDA_VISIBLE_DEVICES=1"}, opts.Env()); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	if opts.Wait != aggregator.DefaultWait {
		t.Errorf("expected default wait %v, got %v", aggregator.DefaultWait, opts.Wait)
	}
}

func TestNewOptionsWait(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.WaitSeconds = 5
	cfg.Aggregator.CUDADevice = ""

	opts := aggregator.NewOptions(cfg, "out", 0, 0)
	if opts.Wait != 5*time.Second {
		t.Errorf("expected 5s, got %v", opts.Wait)
	}
	if opts.Env() != nil {
		t.Errorf("expected no extra env, got %v", opts.Env())
	}
}

func TestFreePorts(t *testing.T) {
	ports, err := aggregator.FreePorts(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ports))
	}
	if ports[0] == ports[1] {
		t.Errorf("expected distinct ports, got %d twice", ports[0])
	}
	for _, p := range ports {
		if p <= 0 || p > 65535 {
			t.Errorf("port out of range: %d", p)
		}
	}
}

// fakeBinary writes a script that echoes its arguments and CUDA device.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis-aggregator")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	return path
}

func TestStartAndWait(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Binary = fakeBinary(t, `echo "$@ cuda=$CUDA_VISIBLE_DEVICES"`)

	var out bytes.Buffer
	agg, err := aggregator.Start(aggregator.NewOptions(cfg, "out", 1, 2), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := agg.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", res.ExitCode)
	}
	want := "out 1 2 --num-tracker 4 --scale-factor 1.4 --moving-iou 0.1 --stationary-iou 0.5 --stationary-maxage 60 cuda=1"
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWaitTerminatesAfterTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Binary = fakeBinary(t, "exec sleep 10")

	opts := aggregator.NewOptions(cfg, "out", 1, 2)
	opts.Wait = 100 * time.Millisecond

	agg, err := aggregator.Start(opts, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := agg.Wait(context.Background()); !errors.Is(err, process.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestTerminate(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Binary = fakeBinary(t, "exec sleep 10")

	agg, err := aggregator.Start(aggregator.NewOptions(cfg, "out", 1, 2), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := agg.Terminate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := agg.Wait(ctx)
	if err == nil && res.ExitCode == 0 {
		t.Error("expected a terminated aggregator to report failure")
	}
}

func TestStartWithoutBinary(t *testing.T) {
	cfg := testConfig()
	cfg.Aggregator.Binary = ""
	if _, err := aggregator.Start(aggregator.NewOptions(cfg, "out", 1, 2), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without a binary")
	}
}
