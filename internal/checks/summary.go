package checks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"webcheck/internal/htmldoc"
	"webcheck/internal/report"
	"webcheck/internal/scanner"
)

// tagTally counts elements per tag name across the HTML files of a project.
type tagTally struct {
	files  []string
	counts map[string]map[string]int
}

func newTagTally() *tagTally {
	return &tagTally{counts: map[string]map[string]int{}}
}

func (t *tagTally) addDocument(file string, doc *htmldoc.Document) {
	t.files = append(t.files, file)
	doc.Query().Find("*").Each(func(_ int, s *goquery.Selection) {
		tag := s.Nodes[0].Data
		if t.counts[tag] == nil {
			t.counts[tag] = map[string]int{}
		}
		t.counts[tag][file]++
	})
}

func (t *tagTally) tags() []string {
	tags := make([]string, 0, len(t.counts))
	for tag := range t.counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// line formats the total of tag followed by the count of every file that
// contains it, e.g. "div: 3 (about.html: 1, index.html: 2)".
func (t *tagTally) line(tag string) string {
	perFile := t.counts[tag]
	total := 0
	var parts []string
	for _, file := range t.files {
		if n := perFile[file]; n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%s: %d", file, n))
		}
	}
	if total == 0 {
		return fmt.Sprintf("%s: 0", tag)
	}
	return fmt.Sprintf("%s: %d (%s)", tag, total, strings.Join(parts, ", "))
}

// projectSummary reports the tag counts of every HTML file that parsed,
// once per project. Documents come from the run's parse cache.
func (r *Runner) projectSummary(files []scanner.File) []report.Finding {
	tally := newTagTally()
	for _, f := range files {
		if f.Kind != scanner.KindHTML {
			continue
		}
		doc, err := r.document(f)
		if err != nil {
			continue
		}
		tally.addDocument(f.RelPath, doc)
	}
	if len(tally.files) == 0 {
		return nil
	}
	sort.Strings(tally.files)

	var out []report.Finding
	for _, tag := range tally.tags() {
		out = append(out, report.NewFinding("", report.CategoryHTML, "tag-summary", report.SeverityInfo,
			0, 0, tag, tally.line(tag)))
	}
	for _, tag := range semanticTags {
		out = append(out, report.NewFinding("", report.CategoryHTML, "semantic-tags", report.SeverityInfo,
			0, 0, tag, tally.line(tag)))
	}
	return out
}
