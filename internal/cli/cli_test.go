package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/devserver"
	"taskboard/internal/store"
)

type testServer struct {
	url      string
	requests atomic.Int64
}

// startServer runs a local task server and isolates config lookup from the user's files.
func startServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tasks.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ts := &testServer{}
	h := devserver.New(st, devserver.Options{RequestTimeout: 5 * time.Second}).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	ts.url = srv.URL + "/tasks"
	return ts
}

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, args, "")
}

func runCLIWithInput(t *testing.T, args []string, stdin string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustJSON(t *testing.T, ts *testServer, args ...string) map[string]any {
	t.Helper()
	args = append([]string{"--api-url", ts.url}, args...)
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: taskboard %v\nerr: %v\nstderr:\n%s", args, err, string(stderr))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout: %v\nstdout:\n%s", err, string(stdout))
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected data key in envelope; got %v", env)
	}
	return env
}

func addTask(t *testing.T, ts *testServer, title, description, column string) string {
	t.Helper()
	env := mustJSON(t, ts, "tasks", "add", "--title", title, "--description", description, "--column", column)
	data, _ := env["data"].(map[string]any)
	id, ok := data["id"].(float64)
	if !ok {
		t.Fatalf("expected numeric id; got %#v", data["id"])
	}
	return strconv.FormatFloat(id, 'f', -1, 64)
}

func TestTasksList_SearchFiltersEveryColumn(t *testing.T) {
	ts := startServer(t)
	addTask(t, ts, "Fix login bug", "", "backlog")
	addTask(t, ts, "Write docs", "mentions a FIX", "review")
	addTask(t, ts, "Refactor", "", "done")

	env := mustJSON(t, ts, "tasks", "list", "--search", "fix")
	meta, _ := env["meta"].(map[string]any)
	if meta["count"] != float64(2) {
		t.Fatalf("expected 2 matching tasks; got %v", meta["count"])
	}
	if meta["total"] != float64(3) {
		t.Fatalf("expected total 3; got %v", meta["total"])
	}

	cols, _ := env["data"].([]any)
	if len(cols) != 4 {
		t.Fatalf("expected 4 columns; got %d", len(cols))
	}
	counts := map[string]int{}
	for _, c := range cols {
		cm := c.(map[string]any)
		counts[cm["column"].(string)] = len(cm["tasks"].([]any))
	}
	want := map[string]int{"backlog": 1, "in-progress": 0, "review": 1, "done": 0}
	for k, v := range want {
		if counts[k] != v {
			t.Fatalf("expected %d tasks in %s; got %d (%v)", v, k, counts[k], counts)
		}
	}
}

func TestTasksList_PaginatesPerColumn(t *testing.T) {
	ts := startServer(t)
	for i := 0; i < 7; i++ {
		addTask(t, ts, "task", "", "backlog")
	}

	env := mustJSON(t, ts, "tasks", "list", "--column", "backlog", "--page", "2")
	cols := env["data"].([]any)
	if len(cols) != 1 {
		t.Fatalf("expected only backlog; got %d columns", len(cols))
	}
	cp := cols[0].(map[string]any)
	if cp["page"] != float64(2) || cp["totalPages"] != float64(2) {
		t.Fatalf("expected page 2 of 2; got %v of %v", cp["page"], cp["totalPages"])
	}
	if n := len(cp["tasks"].([]any)); n != 2 {
		t.Fatalf("expected 2 tasks on the last page; got %d", n)
	}

	env = mustJSON(t, ts, "tasks", "list", "--column", "backlog", "--page", "9")
	cp = env["data"].([]any)[0].(map[string]any)
	if cp["page"] != float64(2) {
		t.Fatalf("expected out-of-range page to clamp to 2; got %v", cp["page"])
	}

	env = mustJSON(t, ts, "tasks", "list", "--column", "backlog", "--all")
	cp = env["data"].([]any)[0].(map[string]any)
	if n := len(cp["tasks"].([]any)); n != 7 {
		t.Fatalf("expected --all to return 7 tasks; got %d", n)
	}
}

func TestTasksAdd_EmptyTitleNeverReachesServer(t *testing.T) {
	ts := startServer(t)

	_, stderr, err := runCLI(t, []string{"--api-url", ts.url, "tasks", "add", "--title", "   "})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(string(stderr), "title is required") {
		t.Fatalf("expected stderr to mention the title; got %q", string(stderr))
	}
	if n := ts.requests.Load(); n != 0 {
		t.Fatalf("expected no requests; got %d", n)
	}
}

func TestTasksMove_ChangesOnlyTheColumn(t *testing.T) {
	ts := startServer(t)
	id := addTask(t, ts, "Ship it", "with notes", "backlog")

	env := mustJSON(t, ts, "tasks", "move", id, "done")
	data := env["data"].(map[string]any)
	if data["column"] != "done" {
		t.Fatalf("expected column done; got %v", data["column"])
	}
	if data["title"] != "Ship it" || data["description"] != "with notes" {
		t.Fatalf("expected title and description unchanged; got %v", data)
	}
	if env["meta"].(map[string]any)["changed"] != true {
		t.Fatalf("expected changed=true; got %v", env["meta"])
	}

	env = mustJSON(t, ts, "tasks", "move", id, "done")
	if env["meta"].(map[string]any)["changed"] != false {
		t.Fatalf("expected same-column move to be a no-op; got %v", env["meta"])
	}
}

func TestTasksEdit_RequiresAChange(t *testing.T) {
	ts := startServer(t)
	id := addTask(t, ts, "Old", "", "review")

	if _, _, err := runCLI(t, []string{"--api-url", ts.url, "tasks", "edit", id}); err == nil {
		t.Fatalf("expected error when nothing changes")
	}

	env := mustJSON(t, ts, "tasks", "edit", id, "--title", "  New  ")
	data := env["data"].(map[string]any)
	if data["title"] != "New" || data["column"] != "review" {
		t.Fatalf("expected trimmed title and kept column; got %v", data)
	}
}

func TestTasksShow_UnknownIDIsNotFound(t *testing.T) {
	ts := startServer(t)

	_, _, err := runCLI(t, []string{"--api-url", ts.url, "tasks", "show", "42"})
	var nf notFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected notFoundError; got %T %v", err, err)
	}
}

func TestTasksRm_Confirmation(t *testing.T) {
	ts := startServer(t)
	id := addTask(t, ts, "Doomed", "", "backlog")

	_, stderr, err := runCLIWithInput(t, []string{"--api-url", ts.url, "tasks", "rm", id}, "n\n")
	var ab abortedError
	if !errors.As(err, &ab) {
		t.Fatalf("expected abortedError; got %T %v", err, err)
	}
	if !strings.Contains(string(stderr), "Are you sure you want to delete task "+id+"?") {
		t.Fatalf("expected confirmation prompt; got %q", string(stderr))
	}
	mustJSON(t, ts, "tasks", "show", id)

	if _, _, err := runCLIWithInput(t, []string{"--api-url", ts.url, "tasks", "rm", id}, "y\n"); err != nil {
		t.Fatalf("expected delete to succeed; got %v", err)
	}
	if _, _, err := runCLI(t, []string{"--api-url", ts.url, "tasks", "show", id}); err == nil {
		t.Fatalf("expected task to be gone")
	}
}

func TestTasksRm_YesSkipsPrompt(t *testing.T) {
	ts := startServer(t)
	id := addTask(t, ts, "Doomed", "", "backlog")

	env := mustJSON(t, ts, "tasks", "rm", id, "--yes")
	if env["data"].(map[string]any)["deleted"] != true {
		t.Fatalf("expected deleted=true; got %v", env["data"])
	}
}

func TestTasksList_TableFormat(t *testing.T) {
	ts := startServer(t)
	addTask(t, ts, "Table row", strings.Repeat("long ", 30), "in-progress")

	stdout, stderr, err := runCLI(t, []string{"--api-url", ts.url, "--format", "table", "tasks", "list"})
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, string(stderr))
	}
	out := string(stdout)
	for _, want := range []string{"ID", "COLUMN", "Table row", "In Progress", "…"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table output to contain %q; got:\n%s", want, out)
		}
	}
}

func TestDoctor_ReportsEndpoints(t *testing.T) {
	ts := startServer(t)
	addTask(t, ts, "one", "", "backlog")

	env := mustJSON(t, ts, "doctor")
	reports := env["data"].([]any)
	if len(reports) != 1 {
		t.Fatalf("expected only the explicit endpoint to be checked; got %d", len(reports))
	}
	r := reports[0].(map[string]any)
	if r["ok"] != true || r["tasks"] != float64(1) {
		t.Fatalf("expected healthy endpoint with 1 task; got %v", r)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway")
	}))
	defer down.Close()

	_, _, err := runCLI(t, []string{"--api-url", down.URL + "/tasks", "doctor", "--fail"})
	if !errors.Is(err, errDoctorIssuesFound) {
		t.Fatalf("expected errDoctorIssuesFound; got %v", err)
	}
}

func TestDocs_ListsAndPrintsTopics(t *testing.T) {
	ts := startServer(t)

	env := mustJSON(t, ts, "docs")
	data := env["data"].(map[string]any)
	topics, _ := data["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics; got %v", data)
	}

	stdout, _, err := runCLI(t, []string{"docs", "keys", "--raw"})
	if err != nil {
		t.Fatalf("docs keys: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "# Board keys") {
		t.Fatalf("expected raw markdown; got %q", string(stdout))
	}

	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}
