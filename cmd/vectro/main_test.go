package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/vectro/internal/domain"
)

// setupWorkdir runs the CLI in an empty directory against the embedded store.
func setupWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("VECTRO_STORE_DRIVER", "embedded")
	t.Setenv("INPUT_QUERY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut strings.Builder
	code = execute(context.Background(), append([]string{"--env", "ci"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writePipeline(t *testing.T, dir, body string) {
	t.Helper()
	path := filepath.Join(dir, "codex", "vectro-index.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExecute_Version(t *testing.T) {
	code, out, _ := run(t, "version")
	if code != 0 || !strings.HasPrefix(out, "vectro dev") {
		t.Errorf("code=%d out=%q", code, out)
	}
}

func TestExecute_UnknownTask(t *testing.T) {
	setupWorkdir(t)

	code, _, errOut := run(t, "task", "drop_everything")
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "unknown task") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestExecute_EmitWithoutResults(t *testing.T) {
	dir := setupWorkdir(t)

	code, _, errOut := run(t, "task", "emit_results")
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "run the query_similarity step first") {
		t.Errorf("stderr = %q", errOut)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "telemetry.json"))
	if err != nil {
		t.Fatalf("telemetry not written: %v", err)
	}
	var entries []domain.TaskResult
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decode telemetry: %v", err)
	}
	if len(entries) != 1 || entries[0].Task != "emit_results" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExecute_RunEmptyPipeline(t *testing.T) {
	dir := setupWorkdir(t)
	writePipeline(t, dir, "yaml\nCopy\nEdit\n")

	code, out, errOut := run(t, "run")
	if code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, errOut)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestExecute_RunMissingPipeline(t *testing.T) {
	setupWorkdir(t)

	if code, _, _ := run(t, "run"); code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}

func TestExecute_RunStopsAtFailingStep(t *testing.T) {
	dir := setupWorkdir(t)
	writePipeline(t, dir, "steps:\n  - task: define_schema\n  - task: \"\"\n  - task: emit_results\n  - task: define_schema\n")

	code, out, _ := run(t, "run")
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	want := "Running task: define_schema\nCreated collection CortexNote\nRunning task: emit_results\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}

	code, out, _ = run(t, "telemetry", "--json")
	if code != 0 {
		t.Fatalf("telemetry code = %d", code)
	}
	var entries []domain.TaskResult
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Task != "define_schema" || entries[1].Task != "emit_results" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExecute_SchemaIdempotent(t *testing.T) {
	setupWorkdir(t)

	_, first, _ := run(t, "task", "define_schema")
	_, second, _ := run(t, "task", "schema")
	if first != "Created collection CortexNote\n" || second != "Collection CortexNote already exists\n" {
		t.Errorf("first=%q second=%q", first, second)
	}
}

func TestExecute_StateShowAndClear(t *testing.T) {
	dir := setupWorkdir(t)
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	q := `{"query":"test","vector":[0.1,0.2,0.3]}`
	if err := os.WriteFile(filepath.Join(stateDir, "query.json"), []byte(q), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := run(t, "state", "show")
	if code != 0 || out != "phase: query-ready\nquery: \"test\" (3 dimensions)\n" {
		t.Errorf("code=%d out=%q", code, out)
	}

	if code, _, _ := run(t, "state", "clear"); code != 0 {
		t.Fatalf("clear code = %d", code)
	}
	_, out, _ = run(t, "state", "show")
	if out != "phase: empty\n" {
		t.Errorf("after clear out = %q", out)
	}
}

func TestExecute_EmbedQueryRequiresInput(t *testing.T) {
	setupWorkdir(t)

	code, _, errOut := run(t, "task", "embed_query")
	if code != 1 || !strings.Contains(errOut, domain.ErrMissingInput.Error()) {
		t.Errorf("code=%d stderr=%q", code, errOut)
	}
}

func TestExecute_TelemetryRejectsNegativeLast(t *testing.T) {
	setupWorkdir(t)

	if code, _, _ := run(t, "telemetry", "--last", "-1"); code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}
