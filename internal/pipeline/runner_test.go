package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type recordingExecutor struct {
	ran   []string
	fail  map[string]error
	calls int
}

func (e *recordingExecutor) Execute(_ context.Context, task string) error {
	e.calls++
	e.ran = append(e.ran, task)
	return e.fail[task]
}

func steps(names ...string) Spec {
	s := Spec{}
	for _, n := range names {
		s.Steps = append(s.Steps, Step{Task: n})
	}
	return s
}

func TestRunner_RunsInOrder(t *testing.T) {
	exec := &recordingExecutor{}
	var out strings.Builder
	r := NewRunner(exec, &out, zap.NewNop())

	if err := r.Run(context.Background(), steps("define_schema", "insert_vectors", "embed_query")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(exec.ran, ",") != "define_schema,insert_vectors,embed_query" {
		t.Errorf("ran = %v", exec.ran)
	}
	want := "Running task: define_schema\nRunning task: insert_vectors\nRunning task: embed_query\n"
	if out.String() != want {
		t.Errorf("out = %q", out.String())
	}
}

func TestRunner_SkipsEmptyTasks(t *testing.T) {
	exec := &recordingExecutor{}
	var out strings.Builder
	r := NewRunner(exec, &out, zap.NewNop())

	spec := steps("", "emit_results", "  ", "\t", " embed_query ")
	if err := r.Run(context.Background(), spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := strings.Join(exec.ran, ","), strings.Join(spec.Tasks(), ","); got != want {
		t.Errorf("ran = %q, want the declared tasks %q", got, want)
	}
	if got := strings.Join(exec.ran, ","); got != "emit_results,embed_query" {
		t.Errorf("ran = %q", got)
	}
	if out.String() != "Running task: emit_results\nRunning task: embed_query\n" {
		t.Errorf("out = %q", out.String())
	}
}

func TestRunner_EmptySpec(t *testing.T) {
	exec := &recordingExecutor{}
	r := NewRunner(exec, &strings.Builder{}, zap.NewNop())

	if err := r.Run(context.Background(), Spec{}); err != nil {
		t.Fatalf("empty spec should succeed: %v", err)
	}
	if exec.calls != 0 {
		t.Errorf("calls = %d", exec.calls)
	}
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	exec := &recordingExecutor{fail: map[string]error{"insert_vectors": boom}}
	r := NewRunner(exec, &strings.Builder{}, zap.NewNop())

	err := r.Run(context.Background(), steps("define_schema", "insert_vectors", "embed_query"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Task != "insert_vectors" || exitErr.Code != 1 {
		t.Errorf("exit error = %+v", exitErr)
	}
	if !errors.Is(err, boom) {
		t.Error("exit error should wrap the task error")
	}
	if strings.Join(exec.ran, ",") != "define_schema,insert_vectors" {
		t.Errorf("ran = %v", exec.ran)
	}
}

func TestRunner_PropagatesExitCode(t *testing.T) {
	exec := &recordingExecutor{fail: map[string]error{
		"query_similarity": &ExitError{Task: "query_similarity", Code: 3},
	}}
	r := NewRunner(exec, &strings.Builder{}, zap.NewNop())

	err := r.Run(context.Background(), steps("query_similarity", "emit_results"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}
}

func TestExitError_Message(t *testing.T) {
	e := &ExitError{Task: "emit_results", Code: 2}
	if e.Error() != "task emit_results failed (exit status 2)" {
		t.Errorf("message = %q", e.Error())
	}
}
