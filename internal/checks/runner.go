// Package checks runs the HTML, outline and JavaScript convention checks
// over a project directory.
package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"webcheck/internal/config"
	"webcheck/internal/htmldoc"
	"webcheck/internal/jsparse"
	"webcheck/internal/parsecache"
	"webcheck/internal/report"
	"webcheck/internal/scanner"
)

// History supplies the file digests recorded by the previous run of a
// project.
type History interface {
	LatestDigests(ctx context.Context, project string) (map[string]string, error)
}

type Option func(*Runner)

// WithHistory lets the runner count files changed since the last run.
func WithHistory(h History) Option {
	return func(r *Runner) {
		r.history = h
	}
}

// Runner checks projects. Parsed files are cached for the duration of one
// run so that every check category shares a single parse per file.
type Runner struct {
	cfg     config.Config
	history History
	docs    *parsecache.Cache[*htmldoc.Document]
	scripts *parsecache.Cache[*jsparse.File]
}

func NewRunner(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		docs:    parsecache.New[*htmldoc.Document](),
		scripts: parsecache.New[*jsparse.File](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run discovers the project files and checks them concurrently. Problems
// with individual files become findings; only discovery errors and
// cancellation abort the run.
func (r *Runner) Run(ctx context.Context, dir string) (*report.Report, error) {
	start := time.Now()
	project, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	files, err := scanner.Discover(ctx, project, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	r.docs.Reset()
	r.scripts.Reset()

	tasks := r.tasks(files)
	results := make([][]report.Finding, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = task()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &report.Report{
		Project:   project,
		StartedAt: start,
		Files:     len(files),
	}
	for _, found := range results {
		rep.Findings = append(rep.Findings, found...)
	}
	if r.cfg.Checks.HTML && r.cfg.Full() {
		rep.Findings = append(rep.Findings, r.projectSummary(files)...)
	}
	for _, f := range files {
		rep.Bytes += f.Size
		rep.Sources = append(rep.Sources, report.Source{
			Path:   f.RelPath,
			Kind:   f.Kind.String(),
			Size:   f.Size,
			Digest: f.Digest,
		})
	}
	rep.Changed = len(files)
	if r.history != nil {
		previous, err := r.history.LatestDigests(ctx, project)
		if err != nil {
			return nil, fmt.Errorf("load previous run: %w", err)
		}
		if len(previous) > 0 {
			rep.Changed = scanner.Changed(files, previous)
		}
	}

	rep.Sort()
	rep.Duration = time.Since(start)
	return rep, nil
}

type htmlCheckFunc func(file string, doc *htmldoc.Document) []report.Finding

// tasks splits the run into independent units of work: one per enabled
// check category of every HTML file and one per script. The categories of
// an HTML file share its cached parse.
func (r *Runner) tasks(files []scanner.File) []func() []report.Finding {
	var htmlChecks []htmlCheckFunc
	if r.cfg.Checks.HTML {
		full := r.cfg.Full()
		htmlChecks = append(htmlChecks, func(file string, doc *htmldoc.Document) []report.Finding {
			return checkHTML(file, doc, full)
		})
	}
	if r.cfg.Checks.Outline {
		htmlChecks = append(htmlChecks, checkOutline)
	}
	if r.cfg.Checks.JS {
		htmlChecks = append(htmlChecks, checkInlineScripts)
	}

	var out []func() []report.Finding
	for _, f := range files {
		switch f.Kind {
		case scanner.KindHTML:
			for i, check := range htmlChecks {
				out = append(out, r.htmlTask(f, check, i == 0))
			}
		case scanner.KindJS:
			if r.cfg.Checks.JS {
				out = append(out, func() []report.Finding { return r.checkScriptFile(f) })
			}
		}
	}
	return out
}

// htmlTask runs one check category over a document. Only the first task of
// a file reports a parse failure.
func (r *Runner) htmlTask(f scanner.File, check htmlCheckFunc, reportErrors bool) func() []report.Finding {
	return func() []report.Finding {
		doc, err := r.document(f)
		if err != nil {
			if reportErrors {
				return []report.Finding{parseError(f.RelPath, report.CategoryHTML, 0, 0, err)}
			}
			return nil
		}
		return check(f.RelPath, doc)
	}
}

func (r *Runner) document(f scanner.File) (*htmldoc.Document, error) {
	return r.docs.Get(f.RelPath, func() (*htmldoc.Document, error) {
		return loadDocument(f.Path)
	})
}

func (r *Runner) checkScriptFile(f scanner.File) []report.Finding {
	file, err := r.scripts.Get(f.RelPath, func() (*jsparse.File, error) {
		return loadScript(f.Path)
	})
	if err != nil {
		var se *jsparse.SyntaxError
		if errors.As(err, &se) {
			return []report.Finding{parseError(f.RelPath, report.CategoryJS, se.Line, se.Column+1, err)}
		}
		return []report.Finding{parseError(f.RelPath, report.CategoryJS, 0, 0, err)}
	}
	return checkScript(f.RelPath, file, r.cfg)
}

func loadDocument(path string) (*htmldoc.Document, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return htmldoc.Parse(fh)
}

func loadScript(path string) (*jsparse.File, error) {
	lang, ok := jsparse.LanguageFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported script %s", filepath.Base(path))
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jsparse.Parse(src, lang)
}

func parseError(file, category string, line, column int, err error) report.Finding {
	return report.NewFinding(file, category, "parse-error", report.SeverityError, line, column, "", err.Error())
}

// Projects lists the subdirectories of dir that bulk mode checks as separate
// projects, skipping dot directories and the configured excludes.
func Projects(dir string, cfg config.Config) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	excluded := map[string]bool{}
	for _, name := range cfg.ExcludeDirs {
		excluded[name] = true
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || excluded[name] {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// RunBulk checks every project directory under dir, one after another, and
// returns their reports in directory order.
func (r *Runner) RunBulk(ctx context.Context, dir string) ([]*report.Report, error) {
	projects, err := Projects(dir, r.cfg)
	if err != nil {
		return nil, err
	}
	reports := make([]*report.Report, 0, len(projects))
	for _, p := range projects {
		rep, err := r.Run(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", filepath.Base(p), err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
