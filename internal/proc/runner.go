// Package proc runs external commands in one of two explicit stream modes.
//
// Captured mode collects both stdout and stderr and gives the child no stdin.
// Passthrough mode collects stdout only; stdin and stderr are connected to the
// controlling terminal so that interactive prompts (password entry) reach the user.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Mode selects how a child's streams are wired.
type Mode int

const (
	Captured Mode = iota
	Passthrough
)

func (m Mode) String() string {
	if m == Passthrough {
		return "passthrough"
	}
	return "captured"
}

// Command describes one child process invocation.
type Command struct {
	Name string
	Args []string
	// Env entries (KEY=VALUE) are appended to the parent's environment.
	// They are never logged.
	Env  []string
	Mode Mode
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds what was collected from a finished child.
// Stderr is always empty in Passthrough mode.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a child that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// Runner executes commands. Implementations must honour Command.Mode.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *zap.Logger
	stdin  io.Reader
	stderr io.Writer
}

// NewExecRunner returns a runner whose passthrough streams are the process's own stdin and stderr.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger, stdin: os.Stdin, stderr: os.Stderr}
}

// Run starts cmd and waits for it. A non-zero exit yields the collected Result
// together with an *ExitError. Cancellation of ctx kills the child and returns ctx.Err().
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	r.logger.Debug("proc.exec",
		zap.String("cmd", cmd.String()),
		zap.Stringer("mode", cmd.Mode))

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec // callers choose the binary
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout

	switch cmd.Mode {
	case Passthrough:
		c.Stdin = r.stdin
		c.Stderr = r.stderr
		if f, ok := r.stdin.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			r.logger.Debug("proc.no_terminal",
				zap.String("cmd", cmd.Name),
				zap.String("hint", "interactive prompts cannot be answered"))
		}
	default:
		c.Stdin = nil
		c.Stderr = &stderr
	}

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.logger.Debug("proc.exit",
				zap.String("cmd", cmd.Name),
				zap.Int("returncode", res.ExitCode),
				zap.Int("stdout_len", len(res.Stdout)),
				zap.Int("stderr_len", len(res.Stderr)))
			return res, &ExitError{Command: cmd.String(), Code: res.ExitCode, Stderr: res.Stderr}
		}
		return res, fmt.Errorf("start %s: %w", cmd.Name, err)
	}

	r.logger.Debug("proc.exit",
		zap.String("cmd", cmd.Name),
		zap.Int("returncode", 0),
		zap.Int("stdout_len", len(res.Stdout)),
		zap.Int("stderr_len", len(res.Stderr)))
	return res, nil
}
