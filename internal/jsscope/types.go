// Package jsscope builds the lexical scope tree of a JavaScript program and
// answers declaration queries over it.
package jsscope

import (
	"webcheck/internal/jsast"
)

// ScopeID indexes Tree.Scopes.
type ScopeID int

// NoScope is the parent of the root scope and the "unbounded" boundary.
const NoScope ScopeID = -1

type ScopeKind int

const (
	Global ScopeKind = iota
	Module
	Block
	Function
	ArrowExpression
)

func (k ScopeKind) String() string {
	switch k {
	case Global:
		return "global"
	case Module:
		return "module"
	case Block:
		return "block"
	case Function:
		return "function"
	case ArrowExpression:
		return "arrowexpression"
	}
	return "unknown"
}

type OccurrenceKind int

const (
	Declaration OccurrenceKind = iota
	Parameter
	Assignment
	BareReference
)

func (k OccurrenceKind) String() string {
	switch k {
	case Declaration:
		return "declaration"
	case Parameter:
		return "parameter"
	case Assignment:
		return "assignment"
	case BareReference:
		return "reference"
	}
	return "unknown"
}

// Declares reports whether the occurrence introduces its name.
func (k OccurrenceKind) Declares() bool {
	return k == Declaration || k == Parameter
}

// Occurrence is one appearance of a variable name.
type Occurrence struct {
	Name  string         `json:"name"`
	Kind  OccurrenceKind `json:"kind"`
	Form  jsast.DeclForm `json:"form,omitempty"`
	Init  *jsast.Literal `json:"init,omitempty"`
	Loc   jsast.Location `json:"loc"`
	Scope ScopeID        `json:"scope"`
}

type Scope struct {
	ID       ScopeID      `json:"id"`
	Depth    int          `json:"depth"`
	Kind     ScopeKind    `json:"kind"`
	Parent   ScopeID      `json:"parent"`
	Children []ScopeID    `json:"children,omitempty"`
	Vars     []Occurrence `json:"vars,omitempty"`
}

// Tree is an arena of scopes; Scopes[0] is the root.
type Tree struct {
	Scopes []Scope `json:"scopes"`
}

func (t *Tree) Root() *Scope {
	return &t.Scopes[0]
}

// Valid reports whether id names a scope of the tree.
func (t *Tree) Valid(id ScopeID) bool {
	return id >= 0 && int(id) < len(t.Scopes)
}

func (t *Tree) Scope(id ScopeID) *Scope {
	return &t.Scopes[id]
}

// Walk visits scopes depth-first in source order, parents before children.
// Returning false from fn skips the scope's subtree.
func (t *Tree) Walk(from ScopeID, fn func(*Scope) bool) {
	s := t.Scope(from)
	if !fn(s) {
		return
	}
	for _, c := range s.Children {
		t.Walk(c, fn)
	}
}

// Occurrences returns every occurrence of the tree in scope order.
func (t *Tree) Occurrences() []Occurrence {
	var out []Occurrence
	t.Walk(0, func(s *Scope) bool {
		out = append(out, s.Vars...)
		return true
	})
	return out
}
