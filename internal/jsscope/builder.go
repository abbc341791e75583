package jsscope

import (
	"webcheck/internal/jsast"
)

// Build walks prog once and returns its scope tree. Occurrences are recorded
// in source order; parameters come before the function body and a declared
// name comes before its initializer.
func Build(prog *jsast.Program) *Tree {
	kind := Global
	if prog.Module {
		kind = Module
	}
	b := &builder{tree: &Tree{}}
	root := b.open(kind, NoScope)
	b.walkList(prog.Body, root)
	return b.tree
}

type builder struct {
	tree *Tree
}

func (b *builder) open(kind ScopeKind, parent ScopeID) ScopeID {
	id := ScopeID(len(b.tree.Scopes))
	depth := 0
	if parent != NoScope {
		depth = b.tree.Scopes[parent].Depth + 1
		b.tree.Scopes[parent].Children = append(b.tree.Scopes[parent].Children, id)
	}
	b.tree.Scopes = append(b.tree.Scopes, Scope{ID: id, Depth: depth, Kind: kind, Parent: parent})
	return id
}

func (b *builder) record(s ScopeID, o Occurrence) {
	o.Scope = s
	b.tree.Scopes[s].Vars = append(b.tree.Scopes[s].Vars, o)
}

func (b *builder) walkList(nodes []jsast.Node, s ScopeID) {
	for _, n := range nodes {
		b.walk(n, s)
	}
}

func (b *builder) walk(n jsast.Node, s ScopeID) {
	switch n := n.(type) {
	case nil:
		return

	case *jsast.Block:
		if n == nil {
			return
		}
		b.walkList(n.Body, b.open(Block, s))

	case *jsast.Function:
		if n == nil {
			return
		}
		kind := Function
		if n.Body == nil {
			kind = ArrowExpression
		}
		fs := b.open(kind, s)
		for _, p := range n.Params {
			b.param(p, fs)
		}
		if n.Body != nil {
			// The body block shares the parameter scope.
			b.walkList(n.Body.Body, fs)
		} else {
			b.walk(n.Expr, fs)
		}

	case *jsast.VarDecl:
		for _, d := range n.Decls {
			b.declare(n.Form, d, s)
		}

	case *jsast.ExprStmt:
		if id, ok := n.Expr.(*jsast.Ident); ok {
			b.record(s, Occurrence{Name: id.Name, Kind: BareReference, Loc: id.Location})
			return
		}
		b.walk(n.Expr, s)

	case *jsast.Assign:
		b.assign(n, s)
		b.walk(n.Left, s)
		b.walk(n.Right, s)

	case *jsast.Catch:
		cs := b.open(Block, s)
		for _, id := range jsast.BoundNames(n.Param) {
			b.record(cs, Occurrence{Name: id.Name, Kind: Parameter, Loc: id.Location})
		}
		if n.Body != nil {
			b.walkList(n.Body.Body, cs)
		}

	case *jsast.Import:
		for _, id := range n.Bindings {
			b.record(s, Occurrence{Name: id.Name, Kind: Declaration, Form: jsast.FormImport, Loc: id.Location})
		}

	case *jsast.Ident, *jsast.Literal:
		return

	case *jsast.Member:
		b.walk(n.Object, s)
		if n.Computed {
			b.walk(n.Property, s)
		}

	case *jsast.AssignPattern:
		b.walk(n.Default, s)

	default:
		b.walkList(jsast.Children(n), s)
	}
}

func (b *builder) declare(form jsast.DeclForm, d *jsast.Declarator, s ScopeID) {
	if d == nil {
		return
	}
	if id, ok := d.Target.(*jsast.Ident); ok {
		b.record(s, Occurrence{Name: id.Name, Kind: Declaration, Form: form, Init: literalOf(d.Init), Loc: id.Location})
	} else {
		for _, id := range jsast.BoundNames(d.Target) {
			b.record(s, Occurrence{Name: id.Name, Kind: Declaration, Form: form, Loc: id.Location})
		}
		b.walkDefaults(d.Target, s)
	}
	b.walk(d.Init, s)
}

func (b *builder) param(p *jsast.Param, fs ScopeID) {
	if p == nil {
		return
	}
	if id, ok := p.Target.(*jsast.Ident); ok {
		b.record(fs, Occurrence{Name: id.Name, Kind: Parameter, Init: literalOf(p.Default), Loc: id.Location})
	} else {
		for _, id := range jsast.BoundNames(p.Target) {
			b.record(fs, Occurrence{Name: id.Name, Kind: Parameter, Loc: id.Location})
		}
		b.walkDefaults(p.Target, fs)
	}
	b.walk(p.Default, fs)
}

// walkDefaults visits the default values nested in a destructuring pattern.
func (b *builder) walkDefaults(target jsast.Node, s ScopeID) {
	switch t := target.(type) {
	case *jsast.AssignPattern:
		b.walkDefaults(t.Target, s)
		b.walk(t.Default, s)
	case *jsast.ObjectPattern, *jsast.ArrayPattern, *jsast.PatternProp, *jsast.Rest:
		for _, c := range jsast.Children(t) {
			b.walkDefaults(c, s)
		}
	}
}

func (b *builder) assign(n *jsast.Assign, s ScopeID) {
	var name *jsast.Ident
	if id, ok := n.Left.(*jsast.Ident); ok {
		name = id
	} else {
		name = jsast.FirstIdent(n)
	}
	if name == nil {
		return
	}
	loc := name.Location
	if n.Left != nil {
		loc = n.Left.Pos()
	}
	b.record(s, Occurrence{Name: name.Name, Kind: Assignment, Loc: loc})
}

func literalOf(n jsast.Node) *jsast.Literal {
	lit, ok := n.(*jsast.Literal)
	if !ok || lit == nil {
		return nil
	}
	return lit
}
