// Package outline reduces an HTML document to its sectioning and heading
// elements and validates the heading structure of that skeleton.
package outline

import (
	"golang.org/x/net/html"

	"webcheck/internal/htmldoc"
)

type Kind int

const (
	Root Kind = iota
	Sectioning
	Heading
	// Other only exists between the two skeleton passes.
	Other
)

var sectioningTags = map[string]bool{
	"body":    true,
	"nav":     true,
	"aside":   true,
	"article": true,
	"section": true,
}

// Node is an element of the outline skeleton. Level is the heading level
// (1..6) for headings and 0 otherwise.
type Node struct {
	Kind     Kind    `json:"kind"`
	Tag      string  `json:"tag"`
	Level    int     `json:"level,omitempty"`
	Line     int     `json:"line"`
	Children []*Node `json:"children,omitempty"`
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// Skeleton returns the outline skeleton of doc. The document itself is not
// modified.
func Skeleton(doc *htmldoc.Document) *Node {
	root := elementsOnly(doc, doc.Root)
	unwrap(root)
	return root
}

// elementsOnly copies the element structure below n and drops text, comments
// and doctypes.
func elementsOnly(doc *htmldoc.Document, n *html.Node) *Node {
	out := &Node{Line: doc.Line(n)}
	switch {
	case n.Type == html.DocumentNode:
		out.Kind = Root
	case sectioningTags[n.Data]:
		out.Kind = Sectioning
		out.Tag = n.Data
	case headingLevel(n.Data) > 0:
		out.Kind = Heading
		out.Tag = n.Data
		out.Level = headingLevel(n.Data)
	default:
		out.Kind = Other
		out.Tag = n.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out.Children = append(out.Children, elementsOnly(doc, c))
		}
	}
	return out
}

// unwrap replaces every Other node below n by its own (unwrapped) children.
func unwrap(n *Node) {
	var kept []*Node
	for _, c := range n.Children {
		unwrap(c)
		if c.Kind == Other {
			kept = append(kept, c.Children...)
		} else {
			kept = append(kept, c)
		}
	}
	n.Children = kept
}
