// Package coretest provides test doubles for the core package.
package coretest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dorcha-inc/devbox/internal/core"
)

// Call records a single command invocation made through Runner
type Call struct {
	Name string
	Args []string
	Dir  string
}

// Response describes what a mocked command prints and how it exits
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	StartErr error
}

// Runner is a mock core.CommandRunner. Pass it to core.NewExecutorWithClockAndRunner.
type Runner struct {
	Calls []*Call
	// RespondFunc picks the response for a call; when nil, Default is used
	RespondFunc func(call *Call) Response
	Default     Response
}

func (r *Runner) CommandContext(ctx context.Context, name string, arg ...string) core.Command {
	call := &Call{Name: name, Args: append([]string(nil), arg...)}
	r.Calls = append(r.Calls, call)
	return &command{ctx: ctx, call: call, runner: r}
}

// Interface guard
var _ core.CommandRunner = &Runner{}

// ExitError mimics *exec.ExitError for mocked commands
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

type command struct {
	ctx      context.Context
	call     *Call
	runner   *Runner
	response Response
}

func (c *command) SetDir(dir string) {
	c.call.Dir = dir
}

func (c *command) resolve() {
	if c.runner.RespondFunc != nil {
		c.response = c.runner.RespondFunc(c.call)
		return
	}
	c.response = c.runner.Default
}

func (c *command) StdoutPipe() (io.ReadCloser, error) {
	c.resolve()
	return io.NopCloser(strings.NewReader(c.response.Stdout)), nil
}

func (c *command) StderrPipe() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(c.response.Stderr)), nil
}

func (c *command) Start() error {
	return c.response.StartErr
}

func (c *command) Wait() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	if c.response.ExitCode != 0 {
		return &ExitError{Code: c.response.ExitCode}
	}
	return nil
}

// Interface guard
var _ core.Command = &command{}
