// Package process runs external collaborators as child processes and turns
// their failures into descriptive errors.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/okian/comprank/internal/domain/model"
)

const (
	// maxStderr bounds how much stderr text is copied into an error message.
	maxStderr = 4096
	// waitDelay bounds how long output pipes may stay open after a kill.
	waitDelay = 500 * time.Millisecond
)

// Command describes one child process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Runner starts a command and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd, honoring ctx for cancellation. Spawn failures, non-zero
// exits and timeouts are ErrExternalProcess; the message carries the exit
// status and stderr where available.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	const op = "process.run"
	if cmd.Name == "" {
		return Result{}, model.WrapKind(op, model.ErrExternalProcess, ErrNoCommand)
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			ctxErr = ErrTimeout
		}
		return res, model.WrapKind(op, model.ErrExternalProcess,
			fmt.Errorf("%s: %w after %s", cmd.Name, ctxErr, res.Duration.Round(time.Millisecond)))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, model.WrapKind(op, model.ErrExternalProcess,
			fmt.Errorf("%s exited with status %d: %s", cmd.Name, exitErr.ExitCode(), Tail(res.Stderr)))
	}
	return res, model.WrapKind(op, model.ErrExternalProcess, fmt.Errorf("failed to spawn %s: %w", cmd.Name, err))
}

// Shell wraps a command line for the platform shell.
func Shell(line, dir string) Command {
	if runtime.GOOS == "windows" {
		return Command{Name: "cmd", Args: []string{"/C", line}, Dir: dir}
	}
	return Command{Name: "sh", Args: []string{"-c", line}, Dir: dir}
}

// Tail trims output and keeps at most the last maxStderr bytes.
func Tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	if s == "" {
		return "(no output)"
	}
	return s
}
