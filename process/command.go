package process

import (
	"io"
	"time"
)

// DefaultGracePeriod is the wait between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// Stdout and Stderr receive the output as it is produced. When nil the
	// output is captured into the Result.
	Stdout io.Writer
	Stderr io.Writer
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to DefaultGracePeriod if zero.
	GracePeriod time.Duration
}

func (c Command) grace() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}
