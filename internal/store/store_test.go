package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"webcheck/internal/report"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "webcheck.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(project string, digest string) *report.Report {
	return &report.Report{
		Project:   project,
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration:  1200 * time.Millisecond,
		Files:     2,
		Bytes:     300,
		Changed:   2,
		Findings: []report.Finding{
			report.NewFinding("index.html", report.CategoryHTML, "main", report.SeverityError, 0, 0, "main", "missing <main>"),
			report.NewFinding("app.js", report.CategoryJS, "var-declarations", report.SeverityWarning, 2, 1, "count", "var count (depth 0)"),
			report.NewFinding("app.js", report.CategoryJS, "var-declarations", report.SeverityWarning, 2, 1, "count", "var count (depth 0)"),
		},
		Sources: []report.Source{
			{Path: "index.html", Kind: "html", Size: 200, Digest: "aaaa"},
			{Path: "app.js", Kind: "js", Size: 100, Digest: digest},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	r := sampleReport("/site", "bbbb")
	id, err := s.SaveRun(ctx, r)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if r.RunID != id {
		t.Errorf("expected RunID %d, got %d", id, r.RunID)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Project != "/site" || run.Errors != 1 || run.Warnings != 2 || run.Infos != 0 {
		t.Errorf("unexpected run %+v", run)
	}
	if run.DurationMS != 1200 || !run.StartedAt.Equal(r.StartedAt) {
		t.Errorf("unexpected timing %+v", run)
	}

	if _, err := s.GetRun(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindingsAndFiles(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id, err := s.SaveRun(ctx, sampleReport("/site", "bbbb"))
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.Findings(ctx, id, FindingFilter{})
	if err != nil {
		t.Fatalf("Findings failed: %v", err)
	}
	if len(all) != 3 || all[0].Check != "main" {
		t.Errorf("expected 3 findings in stored order, got %+v", all)
	}

	warnings, err := s.Findings(ctx, id, FindingFilter{Severity: report.SeverityWarning, File: "app.js"})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 2 || warnings[0].Line != 2 || warnings[0].Column != 1 {
		t.Errorf("unexpected filtered findings %+v", warnings)
	}

	files, err := s.Files(ctx, id)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(files) != 2 || files[0].Path != "app.js" || files[1].Kind != "html" {
		t.Errorf("unexpected files %+v", files)
	}
}

func TestListRunsAndLatestDigests(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	empty, err := s.LatestDigests(ctx, "/site")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no digests, got %v (%v)", empty, err)
	}

	for _, digest := range []string{"v1", "v2"} {
		if _, err := s.SaveRun(ctx, sampleReport("/site", digest)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.SaveRun(ctx, sampleReport("/other", "x")); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns(ctx, "/site", 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID < runs[1].ID {
		t.Errorf("expected 2 runs newest first, got %+v", runs)
	}

	limited, err := s.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Project != "/other" {
		t.Errorf("expected the latest run of any project, got %+v", limited)
	}

	digests, err := s.LatestDigests(ctx, "/site")
	if err != nil {
		t.Fatal(err)
	}
	if digests["app.js"] != "v2" || digests["index.html"] != "aaaa" {
		t.Errorf("expected digests of the latest run, got %v", digests)
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s, err := Open(filepath.Join(dir, "webcheck.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected %s to exist, got %v", dir, err)
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", dir)
	}
}
