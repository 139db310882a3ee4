package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ErrWaitTimeout is returned by Wait when the process outlived the timeout
// and had to be terminated.
var ErrWaitTimeout = fmt.Errorf("process: wait timed out")

// Handle is a started subprocess.
type Handle struct {
	cmd    *exec.Cmd
	grace  time.Duration
	start  time.Time
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	done   chan struct{}
	once   sync.Once
	result *Result
	err    error
}

// Start launches cmd without waiting for it.
func Start(cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = cmd.Stdin
	// own process group so the whole tree can be signaled
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	h := &Handle{cmd: c, grace: cmd.grace(), done: make(chan struct{})}
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		h.stdout = &bytes.Buffer{}
		c.Stdout = h.stdout
	}
	if cmd.Stderr != nil {
		c.Stderr = cmd.Stderr
	} else {
		h.stderr = &bytes.Buffer{}
		c.Stderr = h.stderr
	}

	h.start = time.Now()
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: starting %s: %w", cmd.Binary, err)
	}
	go h.reap()
	return h, nil
}

func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.result = &Result{
		ExitCode: h.cmd.ProcessState.ExitCode(),
		Duration: time.Since(h.start),
	}
	if h.stdout != nil {
		h.result.Stdout = h.stdout.Bytes()
	}
	if h.stderr != nil {
		h.result.Stderr = h.stderr.Bytes()
	}
	if err != nil {
		h.err = fmt.Errorf("process: exit code %d: %w", h.result.ExitCode, err)
	}
	close(h.done)
}

// Pid returns the process ID.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Done is closed when the process has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Signal sends sig to the process group.
func (h *Handle) Signal(sig syscall.Signal) error {
	select {
	case <-h.done:
		return nil
	default:
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, sig); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("process: signaling %d: %w", h.cmd.Process.Pid, err)
	}
	return nil
}

// Terminate sends SIGTERM to the process group once, and SIGKILL if it is
// still running after the grace period.
func (h *Handle) Terminate() error {
	var err error
	h.once.Do(func() {
		if err = h.Signal(syscall.SIGTERM); err != nil {
			return
		}
		go func() {
			select {
			case <-h.done:
			case <-time.After(h.grace):
				_ = h.Signal(syscall.SIGKILL)
			}
		}()
	})
	return err
}

// Wait waits for the process to exit. A positive timeout bounds the wait;
// when it expires the process is terminated and ErrWaitTimeout returned
// along with the result once the process is gone.
func (h *Handle) Wait(ctx context.Context, timeout time.Duration) (*Result, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		_ = h.Terminate()
		<-h.done
		return h.result, fmt.Errorf("process: killed by context: %w", ctx.Err())
	case <-expired:
		_ = h.Terminate()
		<-h.done
		return h.result, ErrWaitTimeout
	}
}

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, SIGTERM is sent first, then SIGKILL after GracePeriod.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	h, err := Start(cmd)
	if err != nil {
		return nil, err
	}
	return h.Wait(ctx, 0)
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
