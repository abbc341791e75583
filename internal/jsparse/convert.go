package jsparse

import (
	"strconv"
	"strings"

	"webcheck/internal/jsast"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

type converter struct {
	src []byte
}

func location(n *tree_sitter.Node) jsast.Location {
	pos := n.StartPosition()
	return jsast.Location{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column),
		Start:  int(n.StartByte()),
		End:    int(n.EndByte()),
	}
}

func (c *converter) text(n *tree_sitter.Node) string {
	return n.Utf8Text(c.src)
}

func (c *converter) program(root *tree_sitter.Node) *jsast.Program {
	p := &jsast.Program{Location: location(root)}
	leading := true
	for _, child := range c.namedChildren(root) {
		if child.Kind() == "export_statement" {
			p.Module = true
		}
		if leading {
			if d, ok := c.directive(child); ok {
				p.Directives = append(p.Directives, d)
			} else {
				leading = false
			}
		}
		if n := c.convert(child); n != nil {
			p.Body = append(p.Body, n)
		}
	}
	return p
}

// directive returns the string of a statement consisting of a lone string
// literal, e.g. "use strict".
func (c *converter) directive(n *tree_sitter.Node) (string, bool) {
	if n.Kind() != "expression_statement" {
		return "", false
	}
	children := c.namedChildren(n)
	if len(children) != 1 || children[0].Kind() != "string" {
		return "", false
	}
	raw := c.text(children[0])
	if len(raw) < 2 {
		return "", false
	}
	return raw[1 : len(raw)-1], true
}

// namedChildren skips comments, which tree-sitter attaches anywhere.
func (c *converter) namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "comment", "html_comment":
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) field(n *tree_sitter.Node, name string) jsast.Node {
	child := n.ChildByFieldName(name)
	if child == nil {
		return nil
	}
	return c.convert(child)
}

func (c *converter) generic(n *tree_sitter.Node) *jsast.Generic {
	g := &jsast.Generic{Location: location(n), Kind: n.Kind()}
	for _, child := range c.namedChildren(n) {
		if conv := c.convert(child); conv != nil {
			g.Children = append(g.Children, conv)
		}
	}
	return g
}

func (c *converter) convert(n *tree_sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}
	loc := location(n)

	switch n.Kind() {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern",
		"property_identifier", "private_property_identifier", "undefined":
		return &jsast.Ident{Location: loc, Name: c.text(n)}

	case "string", "number", "true", "false", "null", "regex":
		return c.literal(n)

	case "parenthesized_expression":
		if children := c.namedChildren(n); len(children) == 1 {
			return c.convert(children[0])
		}
		return c.generic(n)

	case "statement_block":
		return c.block(n)

	case "expression_statement":
		children := c.namedChildren(n)
		if len(children) != 1 {
			return c.generic(n)
		}
		return &jsast.ExprStmt{Location: loc, Expr: c.convert(children[0])}

	case "variable_declaration":
		return c.varDecl(n, jsast.FormVar)

	case "lexical_declaration":
		form := jsast.FormLet
		if kind := n.ChildByFieldName("kind"); kind != nil && c.text(kind) == "const" {
			form = jsast.FormConst
		}
		return c.varDecl(n, form)

	case "for_in_statement":
		return c.forIn(n)

	case "function_declaration", "generator_function_declaration":
		return c.function(n, jsast.FuncDecl)
	case "function_expression", "function", "generator_function":
		return c.function(n, jsast.FuncExpr)
	case "method_definition":
		return c.function(n, jsast.FuncMethod)
	case "arrow_function":
		return c.function(n, jsast.FuncArrow)

	case "assignment_expression", "augmented_assignment_expression":
		op := "="
		if o := n.ChildByFieldName("operator"); o != nil {
			op = c.text(o)
		}
		return &jsast.Assign{
			Location: loc,
			Op:       op,
			Left:     c.field(n, "left"),
			Right:    c.field(n, "right"),
		}

	case "member_expression":
		return &jsast.Member{
			Location: loc,
			Object:   c.field(n, "object"),
			Property: c.field(n, "property"),
		}
	case "subscript_expression":
		return &jsast.Member{
			Location: loc,
			Object:   c.field(n, "object"),
			Property: c.field(n, "index"),
			Computed: true,
		}

	case "object_pattern":
		p := &jsast.ObjectPattern{Location: loc}
		for _, child := range c.namedChildren(n) {
			if conv := c.convert(child); conv != nil {
				p.Props = append(p.Props, conv)
			}
		}
		return p
	case "pair_pattern":
		return &jsast.PatternProp{
			Location: loc,
			Key:      c.field(n, "key"),
			Value:    c.field(n, "value"),
		}
	case "array_pattern":
		p := &jsast.ArrayPattern{Location: loc}
		for _, child := range c.namedChildren(n) {
			if conv := c.convert(child); conv != nil {
				p.Elems = append(p.Elems, conv)
			}
		}
		return p
	case "assignment_pattern", "object_assignment_pattern":
		return &jsast.AssignPattern{
			Location: loc,
			Target:   c.field(n, "left"),
			Default:  c.field(n, "right"),
		}
	case "rest_pattern":
		children := c.namedChildren(n)
		if len(children) == 0 {
			return nil
		}
		return &jsast.Rest{Location: loc, Target: c.convert(children[0])}

	case "catch_clause":
		cc := &jsast.Catch{Location: loc, Param: c.field(n, "parameter")}
		if body := n.ChildByFieldName("body"); body != nil {
			cc.Body = c.block(body)
		}
		return cc

	case "import_statement":
		return c.importStmt(n)
	}

	return c.generic(n)
}

func (c *converter) block(n *tree_sitter.Node) *jsast.Block {
	b := &jsast.Block{Location: location(n)}
	for _, child := range c.namedChildren(n) {
		if conv := c.convert(child); conv != nil {
			b.Body = append(b.Body, conv)
		}
	}
	return b
}

func (c *converter) varDecl(n *tree_sitter.Node, form jsast.DeclForm) *jsast.VarDecl {
	d := &jsast.VarDecl{Location: location(n), Form: form}
	for _, child := range c.namedChildren(n) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		d.Decls = append(d.Decls, &jsast.Declarator{
			Location: location(child),
			Target:   c.field(child, "name"),
			Init:     c.field(child, "value"),
		})
	}
	return d
}

// forIn turns "for (const x of xs) body" into a declaration followed by the
// loop, so that a declaring loop head records its binding like any other
// declaration.
func (c *converter) forIn(n *tree_sitter.Node) jsast.Node {
	kind := n.ChildByFieldName("kind")
	if kind == nil {
		return c.generic(n)
	}
	form := jsast.FormVar
	switch c.text(kind) {
	case "let":
		form = jsast.FormLet
	case "const":
		form = jsast.FormConst
	}

	g := &jsast.Generic{Location: location(n), Kind: n.Kind()}
	left := n.ChildByFieldName("left")
	if left != nil {
		g.Children = append(g.Children, &jsast.VarDecl{
			Location: location(left),
			Form:     form,
			Decls: []*jsast.Declarator{{
				Location: location(left),
				Target:   c.convert(left),
			}},
		})
	}
	for _, name := range []string{"right", "body"} {
		if child := c.field(n, name); child != nil {
			g.Children = append(g.Children, child)
		}
	}
	return g
}

func (c *converter) function(n *tree_sitter.Node, kind jsast.FuncKind) jsast.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		// TypeScript overload signatures and abstract methods.
		return c.generic(n)
	}

	f := &jsast.Function{Location: location(n), Kind: kind}
	if name := n.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
		f.Name = &jsast.Ident{Location: location(name), Name: c.text(name)}
	}

	if p := n.ChildByFieldName("parameter"); p != nil {
		f.Params = append(f.Params, &jsast.Param{Location: location(p), Target: c.convert(p)})
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range c.namedChildren(params) {
			if param := c.param(p); param != nil {
				f.Params = append(f.Params, param)
			}
		}
	}

	if body.Kind() == "statement_block" {
		f.Body = c.block(body)
	} else {
		f.Expr = c.convert(body)
	}
	return f
}

func (c *converter) param(n *tree_sitter.Node) *jsast.Param {
	loc := location(n)
	switch n.Kind() {
	case "assignment_pattern":
		return &jsast.Param{Location: loc, Target: c.field(n, "left"), Default: c.field(n, "right")}
	case "required_parameter", "optional_parameter":
		pattern := n.ChildByFieldName("pattern")
		if pattern == nil || pattern.Kind() == "this" {
			return nil
		}
		return &jsast.Param{Location: loc, Target: c.convert(pattern), Default: c.field(n, "value")}
	}
	target := c.convert(n)
	if target == nil {
		return nil
	}
	return &jsast.Param{Location: loc, Target: target}
}

func (c *converter) importStmt(n *tree_sitter.Node) *jsast.Import {
	imp := &jsast.Import{Location: location(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		imp.Source = strings.Trim(c.text(src), `"'`)
	}

	var visit func(*tree_sitter.Node)
	visit = func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "import_specifier":
			target := node.ChildByFieldName("alias")
			if target == nil {
				target = node.ChildByFieldName("name")
			}
			if target != nil && target.Kind() == "identifier" {
				imp.Bindings = append(imp.Bindings, &jsast.Ident{Location: location(target), Name: c.text(target)})
			}
			return
		case "identifier":
			imp.Bindings = append(imp.Bindings, &jsast.Ident{Location: location(node), Name: c.text(node)})
			return
		case "string":
			return
		}
		for _, child := range c.namedChildren(node) {
			visit(child)
		}
	}
	for _, child := range c.namedChildren(n) {
		if child.Kind() == "import_clause" {
			visit(child)
		}
	}
	return imp
}

func (c *converter) literal(n *tree_sitter.Node) *jsast.Literal {
	raw := c.text(n)
	lit := &jsast.Literal{Location: location(n), Raw: raw}
	switch n.Kind() {
	case "string":
		lit.Kind = jsast.LitString
		lit.Value = unquote(raw)
	case "number":
		lit.Kind = jsast.LitNumber
		lit.Value = parseNumber(raw)
	case "true", "false":
		lit.Kind = jsast.LitBoolean
		lit.Value = raw == "true"
	case "null":
		lit.Kind = jsast.LitNull
	case "regex":
		lit.Kind = jsast.LitRegex
		lit.Value = raw
	}
	return lit
}

func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]
	if raw[0] == '\'' {
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `"`, `\"`)
	}
	if s, err := strconv.Unquote(`"` + body + `"`); err == nil {
		return s
	}
	return raw[1 : len(raw)-1]
}

func parseNumber(raw string) any {
	s := strings.ReplaceAll(raw, "_", "")
	if strings.HasSuffix(s, "n") {
		return raw
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return raw
}
