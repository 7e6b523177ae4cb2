// Package core implements the functionality shared across all devbox commands.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// CommandRunner is an interface for running commands, allowing for testing with mocks
type CommandRunner interface {
	CommandContext(ctx context.Context, name string, arg ...string) Command
}

// Command is an interface for exec.Cmd, allowing for testing with mocks
type Command interface {
	StdoutPipe() (io.ReadCloser, error)
	StderrPipe() (io.ReadCloser, error)
	SetDir(dir string)
	Start() error
	Wait() error
}

// execCommand wraps exec.Cmd to implement Command interface
type execCommand struct {
	*exec.Cmd
}

func (e *execCommand) SetDir(dir string) {
	e.Dir = dir
}

// Explicitly forward methods from *exec.Cmd to satisfy the Command interface
// (even though they're already available through embedding, this makes it explicit for the linter)
func (e *execCommand) Start() error {
	return e.Cmd.Start()
}

func (e *execCommand) Wait() error {
	return e.Cmd.Wait()
}

func (e *execCommand) StdoutPipe() (io.ReadCloser, error) {
	return e.Cmd.StdoutPipe()
}

func (e *execCommand) StderrPipe() (io.ReadCloser, error) {
	return e.Cmd.StderrPipe()
}

// Interface guard for execCommand
var _ Command = &execCommand{}

// execCommandRunner wraps exec.CommandContext to implement CommandRunner
type execCommandRunner struct{}

func (e *execCommandRunner) CommandContext(ctx context.Context, name string, arg ...string) Command {
	return &execCommand{Cmd: exec.CommandContext(ctx, name, arg...)}
}

// Interface guard for execCommandRunner
var _ CommandRunner = &execCommandRunner{}

// exitCoder is satisfied by *exec.ExitError and by test doubles
type exitCoder interface {
	ExitCode() int
}

// ExitError is returned by Executor.Run when a command exits with a non-zero status
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// ExecutionResult represents the result of a command execution
type ExecutionResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Executor runs external commands synchronously with an optional timeout
type Executor struct {
	timeout       time.Duration
	clock         clockwork.Clock
	commandRunner CommandRunner
}

// NewExecutor creates a new executor with a real clock. A zero timeout disables the deadline.
func NewExecutor(timeout time.Duration) *Executor {
	return NewExecutorWithClockAndRunner(timeout, clockwork.NewRealClock(), &execCommandRunner{})
}

// NewExecutorWithClockAndRunner creates a new executor with a custom clock and command runner
// This is useful for testing with a fake clock and mocked command execution
func NewExecutorWithClockAndRunner(timeout time.Duration, clock clockwork.Clock, runner CommandRunner) *Executor {
	return &Executor{
		timeout:       timeout,
		clock:         clock,
		commandRunner: runner,
	}
}

// Run executes name with args in dir and waits for it to finish.
// A non-zero exit status is reported as *ExitError alongside the captured result.
func (e *Executor) Run(ctx context.Context, dir, name string, args ...string) (*ExecutionResult, error) {
	var (
		execCtx context.Context
		cancel  context.CancelFunc
	)
	if e.timeout > 0 {
		execCtx, cancel = clockwork.WithTimeout(ctx, e.clock, e.timeout)
	} else {
		execCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	cmd := e.commandRunner.CommandContext(execCtx, name, args...)
	if dir != "" {
		cmd.SetDir(dir)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	var stdoutBuf, stderrBuf strings.Builder
	done := make(chan error, 2)

	go func() {
		_, copyErr := io.Copy(&stdoutBuf, stdout)
		done <- copyErr
	}()

	go func() {
		_, copyErr := io.Copy(&stderrBuf, stderr)
		done <- copyErr
	}()

	// Pipes must be drained before Wait closes them
	<-done
	<-done

	err = cmd.Wait()

	result := &ExecutionResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%s timed out after %v", name, e.timeout)
	}

	if err != nil {
		var coder exitCoder
		if !errors.As(err, &coder) {
			return result, fmt.Errorf("failed to run %s: %w", name, err)
		}
		result.ExitCode = coder.ExitCode()
		return result, &ExitError{
			Command:  strings.Join(append([]string{name}, args...), " "),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	return result, nil
}
