package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Dispatcher runs a task by name in the current process.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string) error
}

// InProcess runs every task through a Dispatcher.
type InProcess struct {
	dispatcher Dispatcher
}

// NewInProcess creates an in-process executor.
func NewInProcess(d Dispatcher) *InProcess {
	return &InProcess{dispatcher: d}
}

// Execute dispatches the task.
func (e *InProcess) Execute(ctx context.Context, task string) error {
	return e.dispatcher.Dispatch(ctx, task)
}

// Subprocess runs every task as "<Path> <Args...> task <name>" in a child
// process, so each task gets its own process lifetime.
type Subprocess struct {
	Path   string
	Args   []string
	Env    []string // appended to the parent environment
	Stdout io.Writer
	Stderr io.Writer
}

// NewSubprocess re-invokes the running binary.
func NewSubprocess(stdout, stderr io.Writer, args ...string) (*Subprocess, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return &Subprocess{Path: self, Args: args, Stdout: stdout, Stderr: stderr}, nil
}

// Execute runs the child and reports a non-zero status as *ExitError with
// the child's code.
func (e *Subprocess) Execute(ctx context.Context, task string) error {
	args := append(append([]string{}, e.Args...), "task", task)
	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Env = append(os.Environ(), e.Env...)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &ExitError{Task: task, Code: exitErr.ExitCode()}
	}
	return &ExitError{Task: task, Code: 1, Err: err}
}
