// Package runner executes external tools (terraform, vagrant,
// ansible-playbook) behind a small interface so callers can be tested with
// fakes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string

	Stdin io.Reader

	// Stdout and Stderr stream output when set. When nil, output is captured
	// into the Result.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ExitError is returned when a process exits with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

// Runner runs external commands.
type Runner interface {
	// Run starts the command and waits for it. A non-zero exit yields an
	// *ExitError together with the Result; a missing binary yields an error
	// wrapping exec.ErrNotFound.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// LookPath resolves a binary on PATH.
	LookPath(name string) (string, error)
}

// Exec is the Runner backed by os/exec.
type Exec struct{}

// New returns the os/exec backed Runner.
func New() *Exec { return &Exec{} }

func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (Exec) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, &stderr)
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", c, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{
			Command:  c.String(),
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}
	return res, fmt.Errorf("%s: %w", c, err)
}

// Func adapts a function to the Runner interface. LookPath succeeds for
// every name unless Missing lists it.
type Func struct {
	RunFunc func(ctx context.Context, cmd Command) (*Result, error)
	Missing []string
}

func (f Func) Run(ctx context.Context, cmd Command) (*Result, error) {
	if f.isMissing(cmd.Name) {
		return nil, fmt.Errorf("%s: %w", cmd.Name, exec.ErrNotFound)
	}
	if f.RunFunc == nil {
		return &Result{}, nil
	}
	return f.RunFunc(ctx, cmd)
}

func (f Func) LookPath(name string) (string, error) {
	if f.isMissing(name) {
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}
	return "/usr/bin/" + name, nil
}

func (f Func) isMissing(name string) bool {
	for _, m := range f.Missing {
		if m == name {
			return true
		}
	}
	return false
}
