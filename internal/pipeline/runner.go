package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Executor runs a single named task.
type Executor interface {
	Execute(ctx context.Context, task string) error
}

// ExitError reports the step that stopped the run and the status to exit with.
type ExitError struct {
	Task string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %s failed (exit status %d): %v", e.Task, e.Code, e.Err)
	}
	return fmt.Sprintf("task %s failed (exit status %d)", e.Task, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes a Spec step by step.
type Runner struct {
	exec   Executor
	out    io.Writer
	logger *zap.Logger
}

// NewRunner creates a Runner that announces each step on out.
func NewRunner(exec Executor, out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{exec: exec, out: out, logger: logger}
}

// Run executes the steps in order. The first failure ends the run and is
// returned as *ExitError; later steps are not started.
func (r *Runner) Run(ctx context.Context, spec Spec) error {
	for i, step := range spec.Steps {
		name := strings.TrimSpace(step.Task)
		if name == "" {
			r.logger.Debug("Skipping step without task", zap.Int("step", i))
			continue
		}

		fmt.Fprintf(r.out, "Running task: %s\n", name)
		if err := r.exec.Execute(ctx, name); err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return exitErr
			}
			return &ExitError{Task: name, Code: 1, Err: err}
		}
	}
	return nil
}
