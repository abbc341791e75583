package checks

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"webcheck/internal/config"
	"webcheck/internal/htmldoc"
	"webcheck/internal/report"
	"webcheck/internal/scanner"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Home</title>
</head>
<body>
<header><h1>Home</h1></header>
<main>
<section>
<h2>News</h2>
<article><article><p>x</p></article></article>
<b>bold</b> <div>box</div>
<img src="a.png" width="20" alt="a">
<form><input type="text"><input type="submit"><select name="s" required></select></form>
</section>
</main>
<script>alert("hi")</script>
<button onclick="go()">Go</button>
</body>
</html>
`

const appJS = `"use strict";
var count = 0;
function inc() {
  total = count + 1;
}
document.getElementById("b").onclick = function () { count++; };
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig(full bool) config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	if full {
		cfg.Level = config.LevelFull
	}
	return cfg
}

// lines returns the lines of the findings of one file and check.
func lines(findings []report.Finding, file, check string) []int {
	var out []int
	for _, f := range findings {
		if f.File == file && f.Check == check {
			out = append(out, f.Line)
		}
	}
	return out
}

func TestRunNormalLevel(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": indexHTML,
		"js/app.js":  appJS,
		"js/bad.js":  "let = = ;\n",
		"style.css":  "body {}",
	})

	rep, err := NewRunner(testConfig(false)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Files != 3 {
		t.Errorf("expected 3 files, got %d", rep.Files)
	}
	if rep.Changed != 3 {
		t.Errorf("expected every file changed without history, got %d", rep.Changed)
	}

	tests := []struct {
		file  string
		check string
		want  []int
	}{
		{"index.html", "base-structure", nil},
		{"index.html", "main", nil},
		{"index.html", "nested-articles", []int{12}},
		{"index.html", "forbidden-tags", []int{13}},
		{"index.html", "semi-forbidden-tags", []int{13}},
		{"index.html", "image-scaling", []int{14}},
		{"index.html", "untitled", []int{12, 12}},
		{"index.html", "intern-script", []int{18}},
		{"index.html", "event-attribute", []int{19}},
		{"index.html", "image-alt", nil},
		{"js/app.js", "var-declarations", []int{2}},
		{"js/app.js", "global-declarations", []int{2}},
		{"js/app.js", "event-property", []int{6}},
		{"js/app.js", "undeclared", nil},
		{"js/bad.js", "parse-error", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.file+"/"+tt.check, func(t *testing.T) {
			if got := lines(rep.Findings, tt.file, tt.check); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunFullLevel(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": indexHTML,
		"js/app.js":  appJS,
	})

	rep, err := NewRunner(testConfig(true)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	messages := map[string][]string{}
	for _, f := range rep.Findings {
		key := f.File + "/" + f.Check
		messages[key] = append(messages[key], f.Message)
	}

	tests := []struct {
		key  string
		want []string
	}{
		{"js/app.js/source-type", []string{"source type script"}},
		{"js/app.js/strict-mode", []string{`"use strict" present`}},
		{"js/app.js/undeclared", []string{"total is assigned without a declaration"}},
		{"index.html/form-input-types", []string{"input_submit: 1", "input_text: 1", "select: 1"}},
		{"index.html/form-input-validation", []string{"required: 1"}},
		{"index.html/form-input-name", []string{`<input type="text"> has no name`}},
		{"index.html/page-title-h1", []string{"<title>Home</title>", "<h1>Home</h1>"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := messages[tt.key]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunProjectTagSummary(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html":       indexHTML,
		"pages/about.html": "<html lang=\"en\"><head><meta charset=\"utf-8\"></head><body><main><div><div>a</div></div><nav></nav></main></body></html>\n",
		"broken.html":      "",
	})

	rep, err := NewRunner(testConfig(true)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary := map[string]string{}
	var semantic []string
	for _, f := range rep.Findings {
		if f.File != "" {
			continue
		}
		switch f.Check {
		case "tag-summary":
			summary[f.Subject] = f.Message
		case "semantic-tags":
			semantic = append(semantic, f.Message)
		}
	}

	tests := []struct {
		tag  string
		want string
	}{
		{"div", "div: 3 (index.html: 1, pages/about.html: 2)"},
		{"main", "main: 2 (index.html: 1, pages/about.html: 1)"},
		{"article", "article: 2 (index.html: 2)"},
		{"input", "input: 2 (index.html: 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := summary[tt.tag]; got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	wantSemantic := []string{
		"address: 0",
		"article: 2 (index.html: 2)",
		"aside: 0",
		"blockquote: 0",
		"cite: 0",
		"figure: 0",
		"nav: 1 (pages/about.html: 1)",
		"q: 0",
	}
	if !reflect.DeepEqual(semantic, wantSemantic) {
		t.Errorf("expected %v, got %v", wantSemantic, semantic)
	}
}

func TestRunNormalLevelHasNoProjectSummary(t *testing.T) {
	root := writeProject(t, map[string]string{"index.html": indexHTML})
	rep, err := NewRunner(testConfig(false)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, f := range rep.Findings {
		if f.File == "" {
			t.Errorf("expected no project findings at the normal level, got %+v", f)
		}
	}
}

func TestRunSharesParsedDocuments(t *testing.T) {
	root := writeProject(t, map[string]string{"index.html": indexHTML})
	r := NewRunner(testConfig(true))
	if _, err := r.Run(context.Background(), root); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// html, outline and inline-script checks plus the project summary.
	if hits, misses := r.docs.Stats(); hits != 3 || misses != 1 {
		t.Errorf("expected 1 parse and 3 cache hits, got %d misses and %d hits", misses, hits)
	}
}

func TestHTMLParseErrorReportedOnce(t *testing.T) {
	r := NewRunner(testConfig(true))
	missing := scanner.File{
		Path:    filepath.Join(t.TempDir(), "gone.html"),
		RelPath: "gone.html",
		Kind:    scanner.KindHTML,
	}

	tasks := r.tasks([]scanner.File{missing})
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	var found []report.Finding
	for _, task := range tasks {
		found = append(found, task()...)
	}
	if got := lines(found, "gone.html", "parse-error"); len(got) != 1 {
		t.Errorf("expected one parse-error finding, got %d", len(got))
	}
}

func TestRunBulk(t *testing.T) {
	root := writeProject(t, map[string]string{
		"alice/index.html":        indexHTML,
		"bob/js/app.js":           appJS,
		"bob/index.html":          indexHTML,
		".git/config":             "",
		"node_modules/x/index.js": "var x;",
		"notes.html":              indexHTML,
	})

	projects, err := Projects(root, testConfig(false))
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	want := []string{filepath.Join(root, "alice"), filepath.Join(root, "bob")}
	if !reflect.DeepEqual(projects, want) {
		t.Errorf("expected %v, got %v", want, projects)
	}

	reports, err := NewRunner(testConfig(false)).RunBulk(context.Background(), root)
	if err != nil {
		t.Fatalf("RunBulk failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	tests := []struct {
		project string
		files   int
	}{
		{"alice", 1},
		{"bob", 2},
	}
	for i, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			if filepath.Base(reports[i].Project) != tt.project {
				t.Errorf("expected project %s, got %s", tt.project, reports[i].Project)
			}
			if reports[i].Files != tt.files {
				t.Errorf("expected %d files, got %d", tt.files, reports[i].Files)
			}
		})
	}
}

func TestRunDisabledChecks(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": indexHTML,
		"js/app.js":  appJS,
	})
	cfg := testConfig(false)
	cfg.Checks.JS = false
	cfg.Checks.Outline = false

	rep, err := NewRunner(cfg).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, f := range rep.Findings {
		if f.Category != report.CategoryHTML {
			t.Errorf("expected only html findings, got %+v", f)
		}
	}
}

type fakeHistory map[string]string

func (h fakeHistory) LatestDigests(context.Context, string) (map[string]string, error) {
	return h, nil
}

func TestRunCountsChangedFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"index.html": indexHTML,
		"js/app.js":  appJS,
	})
	digest, err := scanner.Digest(filepath.Join(root, "index.html"))
	if err != nil {
		t.Fatal(err)
	}

	rep, err := NewRunner(testConfig(false), WithHistory(fakeHistory{"index.html": digest, "js/app.js": "old"})).
		Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Changed != 1 {
		t.Errorf("expected 1 changed file, got %d", rep.Changed)
	}
	if len(rep.Sources) != 2 || rep.Sources[0].Path != "index.html" || rep.Sources[0].Digest != digest {
		t.Errorf("unexpected sources %+v", rep.Sources)
	}
}

func TestRunCancelled(t *testing.T) {
	root := writeProject(t, map[string]string{"a.js": "let a = 1;"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(testConfig(false)).Run(ctx, root); err == nil {
		t.Errorf("expected an error for a cancelled context")
	}
}

func TestCheckHTMLBaseStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "missing body skips the rest",
			src:  `<html lang="en"><head><meta charset="utf-8"></head><b>x</b></html>`,
			want: []string{"base-structure:missing <body> element"},
		},
		{
			name: "no html at all",
			src:  `<p>hello</p>`,
			want: []string{"base-structure:missing <html> element"},
		},
		{
			name: "lang and charset",
			src:  "<html>\n<head><meta charset=\"latin1\"></head>\n<body><main></main></body>\n</html>",
			want: []string{
				"base-structure:lang attribute missing on <html>",
				`base-structure:charset "latin1" is not UTF`,
			},
		},
		{
			name: "outside body and multiple main",
			src:  "<html lang=\"en\"><head><meta charset=\"UTF-8\"></head>\n<body><main></main>\n<main></main></body>\n<footer></footer></html>",
			want: []string{
				"outside-body:<footer> outside <head> and <body>",
				"main:multiple <main> elements",
			},
		},
		{
			name: "missing main",
			src:  `<html lang="en"><head><meta charset="utf-8"></head><body></body></html>`,
			want: []string{"main:missing <main>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := htmldoc.ParseString(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, f := range checkHTML("x.html", doc, false) {
				got = append(got, f.Check+":"+f.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFileHelpers(t *testing.T) {
	root := writeProject(t, map[string]string{
		"page.html": "<body>\n<section>\n<h3>x</h3>\n</section>\n</body>",
		"app.js":    appJS,
	})

	_, res, err := OutlineFile(filepath.Join(root, "page.html"))
	if err != nil {
		t.Fatalf("OutlineFile failed: %v", err)
	}
	if !reflect.DeepEqual(res.LevelConflicts, []int{3}) {
		t.Errorf("expected a level conflict on line 3, got %+v", res)
	}
	if _, _, err := OutlineFile(filepath.Join(root, "app.js")); err == nil {
		t.Errorf("expected an error for a script")
	}

	occs, err := UndeclaredFile(filepath.Join(root, "app.js"), []string{"document"})
	if err != nil {
		t.Fatalf("UndeclaredFile failed: %v", err)
	}
	var names []string
	for _, o := range occs {
		names = append(names, o.Name)
	}
	if strings.Join(names, ",") != "total" {
		t.Errorf("expected [total], got %v", names)
	}
}
