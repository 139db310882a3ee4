package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

// Info describes one build.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	GitBranch string    `json:"git_branch" yaml:"git_branch"`
	BuildTime string    `json:"build_time" yaml:"build_time"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	BuildDate time.Time `json:"build_date" yaml:"-"`
	IsRelease bool      `json:"is_release" yaml:"is_release"`
	IsDirty   bool      `json:"is_dirty" yaml:"is_dirty"`
}

// Get returns the build information, merging link-time values with the
// module build info.
func Get() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.merge(bi)
	}
	if info.BuildDate.IsZero() {
		info.BuildDate = time.Now().UTC()
		info.BuildTime = info.BuildDate.Format(time.RFC3339)
	}
	return info
}

func (i *Info) merge(bi *debug.BuildInfo) {
	if i.GoVersion == "" {
		i.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			i.IsDirty = s.Value == "true"
		case "vcs.time":
			if i.BuildTime != "" {
				continue
			}
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				i.BuildDate = t
				i.BuildTime = s.Value
			}
		}
	}
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

// Short returns "<version>[-<commit>][-dirty]".
func (i *Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	if i.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", i.Version, i.GitCommit)
	}
	return fmt.Sprintf("%s-%s", i.Version, i.GitCommit)
}

// Full returns the short form plus a non-default branch and the build date.
func (i *Info) Full() string {
	parts := []string{i.Version}
	if i.GitCommit != "" {
		parts = append(parts, i.GitCommit)
	}
	if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
		parts = append(parts, i.GitBranch)
	}
	if i.IsDirty {
		parts = append(parts, "dirty")
	}
	s := strings.Join(parts, "-")
	if !i.BuildDate.IsZero() {
		s += fmt.Sprintf(" (built %s)", i.BuildDate.Format("2006-01-02T15:04:05Z"))
	}
	return s
}

// Fields returns the build as log fields.
func (i *Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"version":    i.Short(),
		"go_version": i.GoVersion,
		"build_time": i.BuildTime,
	}
}

// Write prints the build, one "key: value" per line.
func (i *Info) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "version: %s\ncommit: %s\nbranch: %s\nbuilt: %s\ngo: %s\n",
		i.Version, valueOr(i.GitCommit, "unknown"), valueOr(i.GitBranch, "unknown"), i.BuildTime, i.GoVersion)
	return err
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Short returns the short version of the running binary.
func Short() string { return Get().Short() }
