package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestHelperProcess stands in for the vectro binary when the Subprocess
// executor re-invokes the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("VECTRO_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) != 2 || args[0] != "task" {
		fmt.Fprintf(os.Stderr, "unexpected args %v\n", args)
		os.Exit(64)
	}
	switch args[1] {
	case "define_schema":
		fmt.Println("Created collection CortexNote")
		os.Exit(0)
	case "query_similarity":
		os.Exit(3)
	default:
		os.Exit(1)
	}
}

func helperExecutor(stdout *strings.Builder) *Subprocess {
	return &Subprocess{
		Path:   os.Args[0],
		Args:   []string{"-test.run=TestHelperProcess", "--"},
		Env:    []string{"VECTRO_HELPER_PROCESS=1"},
		Stdout: stdout,
		Stderr: os.Stderr,
	}
}

func TestSubprocess_Success(t *testing.T) {
	var out strings.Builder
	if err := helperExecutor(&out).Execute(context.Background(), "define_schema"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Created collection CortexNote") {
		t.Errorf("child output not forwarded: %q", out.String())
	}
}

func TestSubprocess_PropagatesExitCode(t *testing.T) {
	var out strings.Builder
	err := helperExecutor(&out).Execute(context.Background(), "query_similarity")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 || exitErr.Task != "query_similarity" {
		t.Errorf("exit error = %+v", exitErr)
	}
}

func TestSubprocess_MissingBinary(t *testing.T) {
	e := &Subprocess{Path: "/nonexistent/vectro"}
	err := e.Execute(context.Background(), "define_schema")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 || exitErr.Err == nil {
		t.Fatalf("expected start failure as exit code 1, got %v", err)
	}
}

type fakeDispatcher struct {
	got []string
	err error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, name string) error {
	d.got = append(d.got, name)
	return d.err
}

func TestInProcess(t *testing.T) {
	d := &fakeDispatcher{}
	if err := NewInProcess(d).Execute(context.Background(), "emit_results"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.got) != 1 || d.got[0] != "emit_results" {
		t.Errorf("dispatched = %v", d.got)
	}
}
