// Package version reports the covaflow build.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/covaflow/version.Version=1.2.0"
//
// Values left empty are filled from the module build info when present.
package version
