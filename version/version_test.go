package version

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBranch, origBuildTime, origGoVersion :=
		Version, GitCommit, GitBranch, BuildTime, GoVersion
	return func() {
		Version = origVersion
		GitCommit = origCommit
		GitBranch = origBranch
		BuildTime = origBuildTime
		GoVersion = origGoVersion
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "dev", "", "", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.BuildDate.IsZero() {
		t.Error("BuildDate should not be zero")
	}
}

func TestGetWithBuildTime(t *testing.T) {
	defer saveAndRestore()()
	Version, BuildTime = "1.4.0", "2026-03-01T10:00:00Z"

	info := Get()
	if !info.IsRelease {
		t.Error("1.4.0 should be a release")
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !info.BuildDate.Equal(want) {
		t.Errorf("expected build date %v, got %v", want, info.BuildDate)
	}
}

func TestMergeBuildInfo(t *testing.T) {
	info := &Info{Version: "dev"}
	info.merge(&debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-02-02T08:00:00Z"},
		},
	})
	if info.GitCommit != "0123456" {
		t.Errorf("expected commit 0123456, got %q", info.GitCommit)
	}
	if !info.IsDirty {
		t.Error("expected dirty build")
	}
	if info.BuildTime != "2026-02-02T08:00:00Z" {
		t.Errorf("expected vcs time, got %q", info.BuildTime)
	}
	if info.GoVersion != "go1.26.0" {
		t.Errorf("expected go1.26.0, got %q", info.GoVersion)
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestFull(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		GitBranch: "feature/lanes",
		BuildDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	want := "1.0.0-abc1234-feature/lanes (built 2026-01-02T03:04:05Z)"
	if got := info.Full(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	info.GitBranch = "main"
	if got := info.Full(); strings.Contains(got, "main") {
		t.Errorf("default branch should be omitted, got %q", got)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	info := Info{Version: "1.0.0", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0"}
	if err := info.Write(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "version: 1.0.0\ncommit: unknown\nbranch: unknown\nbuilt: 2026-01-02T03:04:05Z\ngo: go1.26.0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
