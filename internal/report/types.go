package report

import (
	"sort"
	"time"

	"webcheck/util"
)

// Finding is a single convention violation or informational note.
type Finding struct {
	ID       string `json:"id"`
	File     string `json:"file"`
	Category string `json:"category"`
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Subject  string `json:"subject,omitempty"`
}

const (
	CategoryHTML    = "html"
	CategoryOutline = "outline"
	CategoryJS      = "js"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// NewFinding fills in the deterministic ID.
func NewFinding(file, category, check, severity string, line, column int, subject, message string) Finding {
	return Finding{
		ID:       util.GenerateFindingID(file, check, line, column, subject+message),
		File:     file,
		Category: category,
		Check:    check,
		Severity: severity,
		Line:     line,
		Column:   column,
		Message:  message,
		Subject:  subject,
	}
}

// Report is the outcome of one project run.
type Report struct {
	RunID     int64         `json:"run_id,omitempty"`
	Project   string        `json:"project"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Files     int           `json:"files"`
	Bytes     int64         `json:"bytes"`
	Changed   int           `json:"changed"`
	Findings  []Finding     `json:"findings"`
	Sources   []Source      `json:"sources,omitempty"`
}

// Source is a checked file with the digest of the content that was checked.
type Source struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// Sort orders findings by file, category, check and position.
func (r *Report) Sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Category != b.Category {
			return categoryRank(a.Category) < categoryRank(b.Category)
		}
		if a.Check != b.Check {
			return a.Check < b.Check
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Message < b.Message
	})
}

// Count returns the number of findings with the given severity.
func (r *Report) Count(severity string) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

func categoryRank(c string) int {
	switch c {
	case CategoryHTML:
		return 0
	case CategoryOutline:
		return 1
	case CategoryJS:
		return 2
	}
	return 3
}
