// Package htmldoc builds a DOM from HTML source while keeping the source line
// of every node. The tree mirrors the markup as written: no implied elements
// are inserted and end tags only close elements that are actually open.
package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML file.
type Document struct {
	Root  *html.Node
	lines map[*html.Node]int
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Parse tokenizes r and builds the document tree.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{
		Root:  &html.Node{Type: html.DocumentNode},
		lines: map[*html.Node]int{},
	}
	stack := []*html.Node{doc.Root}
	line := 1

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenize html at line %d: %w", line, z.Err())
		}

		start := line
		line += bytes.Count(z.Raw(), []byte{'\n'})
		tok := z.Token()
		top := stack[len(stack)-1]

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			n := &html.Node{
				Type:     html.ElementNode,
				Data:     tok.Data,
				DataAtom: tok.DataAtom,
				Attr:     tok.Attr,
			}
			top.AppendChild(n)
			doc.lines[n] = start
			if tt == html.StartTagToken && !voidElements[tok.Data] {
				stack = append(stack, n)
			}

		case html.EndTagToken:
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == tok.Data {
					stack = stack[:i]
					break
				}
			}

		case html.TextToken:
			n := &html.Node{Type: html.TextNode, Data: tok.Data}
			top.AppendChild(n)
			doc.lines[n] = start

		case html.CommentToken:
			n := &html.Node{Type: html.CommentNode, Data: tok.Data}
			top.AppendChild(n)
			doc.lines[n] = start

		case html.DoctypeToken:
			n := &html.Node{Type: html.DoctypeNode, Data: tok.Data}
			top.AppendChild(n)
			doc.lines[n] = start
		}
	}
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(src string) (*Document, error) {
	return Parse(strings.NewReader(src))
}

// Line returns the source line a node starts on, or 0 for nodes that do not
// belong to the document.
func (d *Document) Line(n *html.Node) int {
	return d.lines[n]
}

// Query wraps the tree for CSS selector matching.
func (d *Document) Query() *goquery.Document {
	return goquery.NewDocumentFromNode(d.Root)
}

// Element returns the first element child of n with the given tag, or nil.
func Element(n *html.Node, tag atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
	}
	return nil
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Render serialises n back to markup for messages.
func Render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "<" + n.Data + ">"
	}
	return buf.String()
}

// StartTag renders only the opening tag of n, e.g. <img src="a.png">.
func StartTag(n *html.Node) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	return b.String()
}
