// Package report holds check findings and renders them as text, JSON,
// Markdown or HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json, markdown or html)", s)
}

// Write renders r in the given format.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Summary is a one-line overview of a run.
func Summary(r *Report) string {
	s := fmt.Sprintf("%s %s (%s), %s %s, %s %s, %s %s in %s",
		humanize.Comma(int64(r.Files)), plural(r.Files, "file", "files"),
		humanize.Bytes(uint64(r.Bytes)),
		humanize.Comma(int64(r.Count(SeverityError))), plural(r.Count(SeverityError), "error", "errors"),
		humanize.Comma(int64(r.Count(SeverityWarning))), plural(r.Count(SeverityWarning), "warning", "warnings"),
		humanize.Comma(int64(r.Count(SeverityInfo))), plural(r.Count(SeverityInfo), "note", "notes"),
		r.Duration.Round(time.Millisecond),
	)
	if r.Changed > 0 && r.Changed != r.Files {
		s += fmt.Sprintf("; %d changed since the last run", r.Changed)
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type group struct {
	category string
	check    string
	files    []string
	byFile   map[string][]Finding
}

// groups buckets sorted findings by category and check, keeping file order.
func groups(r *Report) []*group {
	var out []*group
	index := map[string]*group{}
	for _, f := range r.Findings {
		key := f.Category + "/" + f.Check
		g, ok := index[key]
		if !ok {
			g = &group{category: f.Category, check: f.Check, byFile: map[string][]Finding{}}
			index[key] = g
			out = append(out, g)
		}
		if _, ok := g.byFile[f.File]; !ok {
			g.files = append(g.files, f.File)
		}
		g.byFile[f.File] = append(g.byFile[f.File], f)
	}
	return out
}

func sorted(r *Report) *Report {
	c := *r
	c.Findings = append([]Finding(nil), r.Findings...)
	c.Sort()
	return &c
}

// WriteText renders findings grouped per category, check and file.
func WriteText(w io.Writer, r *Report) error {
	r = sorted(r)
	var b strings.Builder
	if len(r.Findings) == 0 {
		b.WriteString("OK\n")
	}

	category := ""
	for _, g := range groups(r) {
		if g.category != category {
			if category != "" {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "=== %s ===\n", g.category)
			category = g.category
		}
		fmt.Fprintf(&b, "*** %s ***\n", g.check)
		for _, file := range g.files {
			b.WriteString(fileLabel(file) + "\n")
			for _, f := range g.byFile[file] {
				b.WriteString("\t" + position(f) + f.Message + "\n")
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", Summary(r))

	_, err := io.WriteString(w, b.String())
	return err
}

// fileLabel names the file of a finding; project-wide findings have none.
func fileLabel(file string) string {
	if file == "" {
		return "(project)"
	}
	return file
}

func position(f Finding) string {
	switch {
	case f.Line > 0 && f.Column > 0:
		return fmt.Sprintf("%d:%d: ", f.Line, f.Column)
	case f.Line > 0:
		return fmt.Sprintf("%d: ", f.Line)
	}
	return ""
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sorted(r))
}

// WriteMarkdown renders one table per check.
func WriteMarkdown(w io.Writer, r *Report) error {
	r = sorted(r)
	var b strings.Builder
	fmt.Fprintf(&b, "# webcheck: %s\n\n%s\n", r.Project, Summary(r))

	category := ""
	for _, g := range groups(r) {
		if g.category != category {
			fmt.Fprintf(&b, "\n## %s\n", g.category)
			category = g.category
		}
		fmt.Fprintf(&b, "\n### %s\n\n", g.check)
		b.WriteString("| File | Line | Severity | Message |\n|---|---|---|---|\n")
		for _, file := range g.files {
			for _, f := range g.byFile[file] {
				line := ""
				if f.Line > 0 {
					line = fmt.Sprint(f.Line)
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(fileLabel(f.File)), line, f.Severity, cell(f.Message))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, "\n", " ")
}

// WriteHTML converts the Markdown report into a standalone page.
func WriteHTML(w io.Writer, r *Report) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, r); err != nil {
		return err
	}

	var body bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := conv.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>webcheck: %s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.Project), body.String())
	return err
}
