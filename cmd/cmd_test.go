package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/errors"
	"github.com/kbukum/covaflow/graph"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGraphCommand(t *testing.T) {
	path := writeConfig(t, "variant: naive\ninput_file: /data/traffic.mp4\nlast: nvinfer_dnn\n")

	out, err := execute(t, "graph", "--config", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d graph.Description
	if err := yaml.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}

	var ids []string
	for _, s := range d.Stages {
		ids = append(ids, s.ID)
	}
	want := []string{"filesrc_0", "qtdemux_0", "h264parse_0", "nvv4l2decoder_0", "nvstreammux_0", "nvinfer_0", "fakesink_0"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("stage mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphCommandWritesFile(t *testing.T) {
	path := writeConfig(t, "variant: single-lane\ninput_file: in.mp4\n")
	dst := filepath.Join(t.TempDir(), "graph.yaml")

	out, err := execute(t, "graph", "--config", path, "--out", dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout, got %q", out)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading graph: %v", err)
	}
	if !strings.Contains(string(data), "qtdemux_0.video_0 -> h264parse_0.sink") {
		t.Errorf("expected the demuxer link in the graph, got:\n%s", data)
	}
}

func TestCommandExitCodes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "unknown key",
			body: "variant: naive\ninput_file: in.mp4\nnum_lanes: 4\n",
			want: errors.ExitConfig,
		},
		{
			name: "unknown variant",
			body: "variant: tiled\ninput_file: in.mp4\n",
			want: errors.ExitConfig,
		},
		{
			name: "unknown truncation point",
			body: "variant: naive\ninput_file: in.mp4\nlast: maskcopy\n",
			want: errors.ExitConfig,
		},
		{
			name: "lanes do not divide",
			body: "variant: cova\ninput_file: in.mp4\nnum_entdec: 3\nnum_mask: 2\nnum_nvdec: 1\n",
			want: errors.ExitTopology,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "graph", "--config", writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.ExitCode(err); got != tt.want {
				t.Errorf("expected exit code %d, got %d (%v)", tt.want, got, err)
			}
		})
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "graph", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"version:", "commit:", "go:"} {
		if !strings.Contains(out, key) {
			t.Errorf("expected %q in output, got:\n%s", key, out)
		}
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name string
		perf bool
	}{
		{"with aggregator", false},
		{"perf", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Variant = "cova"
			cfg.InputFile = "in.mp4"
			dir := filepath.Join(t.TempDir(), "results", "run1")

			track, dnn, err := prepare(cfg, dir, tt.perf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.perf {
				if track != 0 || dnn != 0 {
					t.Errorf("expected ports 0/0 in perf mode, got %d/%d", track, dnn)
				}
			} else if track == 0 || dnn == 0 || track == dnn {
				t.Errorf("expected two distinct ports, got %d/%d", track, dnn)
			}
			if cfg.CovaPort != uint(track) || cfg.TCPProbePort != uint(dnn) {
				t.Errorf("expected config ports %d/%d, got %d/%d", track, dnn, cfg.CovaPort, cfg.TCPProbePort)
			}

			var resolved map[string]any
			data, err := os.ReadFile(filepath.Join(dir, resolvedConfigFile))
			if err != nil {
				t.Fatalf("reading resolved config: %v", err)
			}
			if err := yaml.Unmarshal(data, &resolved); err != nil {
				t.Fatalf("resolved config is not YAML: %v", err)
			}
			if resolved["cova_port"] != track {
				t.Errorf("expected cova_port %d, got %v", track, resolved["cova_port"])
			}
			if resolved["tcpprobe_port"] != dnn {
				t.Errorf("expected tcpprobe_port %d, got %v", dnn, resolved["tcpprobe_port"])
			}
		})
	}
}
