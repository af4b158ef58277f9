package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"storyreel/config"
)

// CommandSpec is a fully-built renderer invocation.
type CommandSpec struct {
	Binary string
	Args   []string
}

// Diagnostic captures why a renderer run failed. The stderr tail is retained
// truncated for reporting.
type Diagnostic struct {
	Stderr   string
	TimedOut bool
	Cause    error
}

func (d *Diagnostic) Error() string {
	if d.TimedOut {
		return fmt.Sprintf("renderer timed out: %s", d.Stderr)
	}
	return fmt.Sprintf("renderer failed: %v: %s", d.Cause, d.Stderr)
}

// Runner executes compiled renderer invocations with a hard wall-clock
// timeout. Exceeding the timeout is fatal to the run.
type Runner struct {
	Timeout time.Duration
}

// NewRunner returns a Runner with the given timeout; zero means the default.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = config.RenderTimeout
	}
	return &Runner{Timeout: timeout}
}

// Run executes the compiled invocation. On non-zero exit or timeout it returns a
// *Diagnostic with the captured stderr.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) error {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Binary, spec.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	return &Diagnostic{
		Stderr:   truncate(stderr.String(), config.DiagnosticMaxLen),
		TimedOut: errors.Is(runCtx.Err(), context.DeadlineExceeded),
		Cause:    err,
	}
}

// truncate keeps the tail of s, where ffmpeg reports its actual error.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
