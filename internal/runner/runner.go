// Package runner launches external media tools and captures their output.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Command is an executable plus a structured argument list. Args are never
// interpreted by a shell.
type Command struct {
	Bin  string
	Args []string
}

func (c Command) String() string {
	return c.Bin + " " + strings.Join(c.Args, " ")
}

type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Err converts a non-zero exit into an *ExitError.
func (r Result) Err(cmd Command) error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Bin: cmd.Bin, Code: r.ExitCode, Stderr: r.Stderr}
}

// FirstLine returns the first non-empty line of stdout.
func (r Result) FirstLine() string {
	for _, line := range strings.Split(r.Stdout, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// LaunchError means the executable could not be started at all.
type LaunchError struct {
	Bin string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Bin, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func IsLaunch(err error) bool {
	var e *LaunchError
	return errors.As(err, &e)
}

// TimeoutError means the child was killed after the configured timeout.
type TimeoutError struct {
	Bin     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Bin, e.Timeout)
}

type ExitError struct {
	Bin    string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := lastLines(e.Stderr, 5)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Bin, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d\n%s", e.Bin, e.Code, msg)
}

// waitDelay bounds how long Wait keeps reading stdout/stderr after the
// child was killed, since a grandchild may still hold the pipes.
var waitDelay = 2 * time.Second

// Exec runs commands as child processes. Zero Timeout means no bound.
type Exec struct {
	Timeout time.Duration
	DryRun  bool
}

func (x *Exec) Run(ctx context.Context, c Command) (Result, error) {
	if x.DryRun {
		log.Printf("[DryRun] Command: %s", c)
		return Result{}, nil
	}

	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.WaitDelay = waitDelay
	hideWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, errors.Wrapf(ctxErr, "%s not started", c.Bin)
		}
		return Result{}, &LaunchError{Bin: c.Bin, Err: err}
	}

	err := cmd.Wait()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) && x.Timeout > 0 {
			return res, &TimeoutError{Bin: c.Bin, Timeout: x.Timeout}
		}
		return res, errors.Wrapf(ctxErr, "%s interrupted", c.Bin)
	}

	// The child exited cleanly; only a leftover grandchild kept the pipes.
	if errors.Is(err, exec.ErrWaitDelay) {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, errors.Wrapf(err, "waiting for %s", c.Bin)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
