package process_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/covaflow/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(result.Stdout)
	if out != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", out)
	}
}

func TestRunExitCode(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "exit 42"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
}

func TestRunStderr(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo oops >&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stderr := strings.TrimSpace(string(result.Stderr))
	if stderr != "oops" {
		t.Fatalf("expected 'oops' on stderr, got %q", stderr)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $MY_TEST_VAR"},
		Env:    []string{"MY_TEST_VAR=hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello123" {
		t.Fatalf("expected 'hello123', got %q", out)
	}
}

func TestStartStreamsOutput(t *testing.T) {
	var out bytes.Buffer
	h, err := process.Start(process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo tracking on $1", "sh", "9000"},
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := h.Wait(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Stdout) != 0 {
		t.Errorf("streamed output should not be captured, got %q", result.Stdout)
	}
	if got := strings.TrimSpace(out.String()); got != "tracking on 9000" {
		t.Errorf("expected 'tracking on 9000', got %q", got)
	}
}

func TestTerminate(t *testing.T) {
	h, err := process.Start(process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Pid() <= 0 {
		t.Fatalf("expected a pid, got %d", h.Pid())
	}
	if err := h.Terminate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after SIGTERM")
	}
	result, _ := h.Wait(context.Background(), 0)
	if result.ExitCode != -1 {
		t.Errorf("expected exit code -1 for a signaled process, got %d", result.ExitCode)
	}
	if err := h.Terminate(); err != nil {
		t.Errorf("second Terminate should be a no-op, got %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	h, err := process.Start(process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := h.Wait(context.Background(), 100*time.Millisecond)
	if !errors.Is(err, process.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to stop: %v", result.Duration)
	}
}

func TestStartMissingBinary(t *testing.T) {
	if _, err := process.Start(process.Command{Binary: "/nonexistent/analysis-aggregator"}); err == nil {
		t.Fatal("expected error for a missing binary")
	}
}
