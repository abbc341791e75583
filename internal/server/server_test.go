package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"webcheck/internal/config"
	"webcheck/internal/store"
)

const page = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>t</title></head>
<body>
<main>
<section>
<h3>wrong level</h3>
</section>
</main>
</body>
</html>
`

func connect(t *testing.T, st *store.Store) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Workers = 2

	srv := New(cfg, st, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, serverTransport); err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String(), res.IsError
}

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html": page,
		"app.js":     "var a = 1;\nfunction f() { missing = a; }\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCheckProjectSavesRun(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "webcheck.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	cs := connect(t, st)
	dir := project(t)

	out, isErr := call(t, cs, "check_project", map[string]any{"dir": dir, "format": "json"})
	if isErr {
		t.Fatalf("expected success, got %s", out)
	}
	var rep struct {
		Files    int `json:"files"`
		Findings []struct {
			Check string `json:"check"`
		} `json:"findings"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if rep.Files != 2 {
		t.Errorf("expected 2 files, got %d", rep.Files)
	}

	runs, err := st.ListRuns(context.Background(), dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}

	out, isErr = call(t, cs, "list_runs", map[string]any{"project": dir})
	if isErr || !strings.Contains(out, `"files": 2`) {
		t.Errorf("unexpected list_runs output: %s", out)
	}
}

func TestCheckProjectErrors(t *testing.T) {
	cs := connect(t, nil)
	dir := project(t)

	if out, isErr := call(t, cs, "check_project", map[string]any{"dir": filepath.Join(dir, "missing")}); !isErr {
		t.Errorf("expected an error for a missing directory, got %s", out)
	}
	if out, isErr := call(t, cs, "check_project", map[string]any{"dir": dir, "level": "verbose"}); !isErr {
		t.Errorf("expected an error for an unknown level, got %s", out)
	}
	if out, isErr := call(t, cs, "list_runs", map[string]any{}); !isErr {
		t.Errorf("expected an error without a store, got %s", out)
	}
}

func TestCheckOutlineAndUndeclared(t *testing.T) {
	cs := connect(t, nil)
	dir := project(t)

	out, isErr := call(t, cs, "check_outline", map[string]any{"file": filepath.Join(dir, "index.html")})
	if isErr {
		t.Fatalf("check_outline failed: %s", out)
	}
	if !strings.Contains(out, `"kind": "level-conflict"`) || !strings.Contains(out, `"line": 7`) {
		t.Errorf("expected a level conflict on line 7, got %s", out)
	}

	out, isErr = call(t, cs, "find_undeclared", map[string]any{"file": filepath.Join(dir, "app.js")})
	if isErr {
		t.Fatalf("find_undeclared failed: %s", out)
	}
	if !strings.Contains(out, `"name": "missing"`) || strings.Contains(out, `"name": "a"`) {
		t.Errorf("expected only missing, got %s", out)
	}
}

func TestResources(t *testing.T) {
	cs := connect(t, nil)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: guidelinesURI})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "check_project") {
		t.Errorf("expected guidelines to mention check_project")
	}

	res, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: schemaURIRoot + "find_undeclared"})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, `"file"`) {
		t.Errorf("expected the schema to describe file, got %s", res.Contents[0].Text)
	}

	if _, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: schemaURIRoot + "nope"}); err == nil {
		t.Errorf("expected an error for an unknown tool")
	}
}

func TestToolIndexMatchesRegisteredTools(t *testing.T) {
	cs := connect(t, nil)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: schemaIndexURI})
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	var index []struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &index); err != nil {
		t.Fatalf("expected a JSON index, got %v", err)
	}

	listed, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	served := map[string]bool{}
	for _, tool := range listed.Tools {
		served[tool.Name] = true
	}
	if len(index) != len(served) {
		t.Errorf("expected %d indexed tools, got %d", len(served), len(index))
	}
	for _, entry := range index {
		if !served[entry.Name] {
			t.Errorf("expected %s to be a served tool", entry.Name)
		}
		if entry.URI != schemaURIRoot+entry.Name {
			t.Errorf("expected uri %s, got %s", schemaURIRoot+entry.Name, entry.URI)
		}
	}
}
