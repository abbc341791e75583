// Package jsparse parses JavaScript and TypeScript sources with tree-sitter
// and converts the concrete syntax tree into a jsast tree.
package jsparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"webcheck/internal/jsast"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type Language string

const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// LanguageFor maps a file name to the grammar used to parse it.
func LanguageFor(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return JavaScript, true
	case ".ts", ".mts", ".cts":
		return TypeScript, true
	case ".tsx":
		return TSX, true
	}
	return "", false
}

func (l Language) grammar() (*tree_sitter.Language, error) {
	switch l {
	case JavaScript:
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case TypeScript:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case TSX:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	}
	return nil, fmt.Errorf("unsupported language %q", string(l))
}

// SyntaxError reports the first error or missing node of a source file.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// EventProp is a DOM level 0 handler assignment such as el.onclick = f.
type EventProp struct {
	Name string
	Loc  jsast.Location
}

// File is a parsed source file.
type File struct {
	Language   Language
	Program    *jsast.Program
	EventProps []EventProp
}

// Parse parses src and converts it. Sources with syntax errors are rejected
// with a *SyntaxError.
func Parse(src []byte, lang Language) (*File, error) {
	grammar, err := lang.grammar()
	if err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, fmt.Errorf("failed to set %s grammar: %w", lang, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source", lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, src)
	}

	events, err := eventProps(grammar, root, src)
	if err != nil {
		return nil, err
	}

	c := &converter{src: src}
	return &File{
		Language:   lang,
		Program:    c.program(root),
		EventProps: events,
	}, nil
}

func eventProps(grammar *tree_sitter.Language, root *tree_sitter.Node, src []byte) ([]EventProp, error) {
	q, qerr := tree_sitter.NewQuery(grammar, Queries["event_property"])
	if qerr != nil {
		return nil, fmt.Errorf("invalid event query: %s", qerr.Error())
	}
	defer q.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var out []EventProp
	matches := qc.Matches(q, root, src)
	for m := matches.Next(); m != nil; m = matches.Next() {
		for _, c := range m.Captures {
			name := c.Node.Utf8Text(src)
			if !strings.HasPrefix(name, "on") {
				continue
			}
			out = append(out, EventProp{Name: name, Loc: location(&c.Node)})
		}
	}
	return out, nil
}

func firstError(root *tree_sitter.Node, src []byte) *SyntaxError {
	var found *tree_sitter.Node
	var visit func(n *tree_sitter.Node)
	visit = func(n *tree_sitter.Node) {
		if found != nil || n == nil || !n.HasError() && !n.IsMissing() {
			return
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	if found == nil {
		found = root
	}

	pos := found.StartPosition()
	near := found.Utf8Text(src)
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if len(near) > 40 {
		near = near[:40]
	}
	return &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column), Near: near}
}
