package outline

import "sort"

type ErrorKind int

const (
	Untitled ErrorKind = iota
	LevelConflict
	MultipleHeadings
)

func (k ErrorKind) String() string {
	switch k {
	case Untitled:
		return "untitled"
	case LevelConflict:
		return "level-conflict"
	case MultipleHeadings:
		return "multiple-headings"
	}
	return "unknown"
}

type Error struct {
	Kind ErrorKind `json:"kind"`
	Line int       `json:"line"`
}

// Result holds the offending source lines per error kind in the order the
// validator found them.
type Result struct {
	Untitled         []int `json:"untitled"`
	LevelConflicts   []int `json:"level_conflicts"`
	MultipleHeadings []int `json:"multiple_headings"`
}

func (r Result) Empty() bool {
	return len(r.Untitled) == 0 && len(r.LevelConflicts) == 0 && len(r.MultipleHeadings) == 0
}

func (r *Result) merge(o Result) {
	r.Untitled = append(r.Untitled, o.Untitled...)
	r.LevelConflicts = append(r.LevelConflicts, o.LevelConflicts...)
	r.MultipleHeadings = append(r.MultipleHeadings, o.MultipleHeadings...)
}

// Errors flattens the result, ordered by kind and then line.
func (r Result) Errors() []Error {
	var out []Error
	add := func(kind ErrorKind, lines []int) {
		sorted := append([]int(nil), lines...)
		sort.Ints(sorted)
		for _, l := range sorted {
			out = append(out, Error{Kind: kind, Line: l})
		}
	}
	add(Untitled, r.Untitled)
	add(LevelConflict, r.LevelConflicts)
	add(MultipleHeadings, r.MultipleHeadings)
	return out
}

// Validate checks a skeleton whose root sits at depth 0. Every sectioning
// node one level deeper expects headings of the next level: for a document
// root, body expects h1 and a section inside body expects h2.
func Validate(root *Node) Result {
	if root == nil {
		return Result{}
	}
	_, _, res := check(root, 0)
	return res
}

// check returns the number of headings directly owned by n, how many of
// them follow a sibling sectioning element, and the errors below n.
func check(n *Node, depth int) (headings, afterSection int, res Result) {
	for i, c := range n.Children {
		switch c.Kind {
		case Sectioning:
			_, _, nested := check(c, depth+1)
			res.merge(nested)
		case Heading:
			if headings == 0 && precededBySection(n.Children, i) {
				afterSection++
			}
			headings++
			if c.Level != depth {
				res.LevelConflicts = append(res.LevelConflicts, c.Line)
			}
		default:
			if headings == 0 && precededBySection(n.Children, i) {
				afterSection++
			}
			h, a, nested := check(c, depth)
			headings += h
			afterSection += a
			res.merge(nested)
		}
	}

	if n.Kind == Sectioning {
		if (headings == 0 && depth > 0) || afterSection > 0 {
			res.Untitled = append(res.Untitled, n.Line)
		}
		if headings > 1 {
			res.MultipleHeadings = append(res.MultipleHeadings, n.Line)
		}
	}
	return headings, afterSection, res
}

func precededBySection(siblings []*Node, i int) bool {
	for _, s := range siblings[:i] {
		if s.Kind == Sectioning {
			return true
		}
	}
	return false
}
