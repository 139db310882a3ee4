// Package process runs side processes. A started process lives in its own
// process group; terminating it sends SIGTERM to the group and escalates to
// SIGKILL after a grace period.
package process
