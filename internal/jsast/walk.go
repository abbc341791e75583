package jsast

// Children returns the direct children of n in field order. Nil fields are
// skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Program:
		return n.Body
	case *Block:
		return n.Body
	case *Function:
		if n.Name != nil {
			add(n.Name)
		}
		for _, p := range n.Params {
			add(p)
		}
		if n.Body != nil {
			add(n.Body)
		}
		add(n.Expr)
	case *Param:
		add(n.Target)
		add(n.Default)
	case *VarDecl:
		for _, d := range n.Decls {
			add(d)
		}
	case *Declarator:
		add(n.Target)
		add(n.Init)
	case *ExprStmt:
		add(n.Expr)
	case *Assign:
		add(n.Left)
		add(n.Right)
	case *Member:
		add(n.Object)
		add(n.Property)
	case *ObjectPattern:
		return n.Props
	case *PatternProp:
		add(n.Key)
		add(n.Value)
	case *ArrayPattern:
		return n.Elems
	case *AssignPattern:
		add(n.Target)
		add(n.Default)
	case *Rest:
		add(n.Target)
	case *Catch:
		add(n.Param)
		if n.Body != nil {
			add(n.Body)
		}
	case *Import:
		for _, b := range n.Bindings {
			add(b)
		}
	case *Generic:
		return n.Children
	}
	return out
}

// FirstIdent returns the first identifier met in a depth-first, field-order
// scan of n, or nil.
func FirstIdent(n Node) *Ident {
	if n == nil || isNilNode(n) {
		return nil
	}
	if id, ok := n.(*Ident); ok {
		return id
	}
	for _, c := range Children(n) {
		if id := FirstIdent(c); id != nil {
			return id
		}
	}
	return nil
}

// BoundNames returns the identifiers a binding target introduces: the target
// itself for an identifier, every bound name for destructuring patterns.
// Default values and computed keys are not part of the result.
func BoundNames(target Node) []*Ident {
	var out []*Ident
	var collect func(Node)
	collect = func(n Node) {
		switch n := n.(type) {
		case *Ident:
			out = append(out, n)
		case *ObjectPattern:
			for _, p := range n.Props {
				collect(p)
			}
		case *PatternProp:
			collect(n.Value)
		case *ArrayPattern:
			for _, e := range n.Elems {
				collect(e)
			}
		case *AssignPattern:
			collect(n.Target)
		case *Rest:
			collect(n.Target)
		case *Param:
			collect(n.Target)
		}
	}
	if target != nil && !isNilNode(target) {
		collect(target)
	}
	return out
}

// isNilNode reports whether n is an interface holding a typed nil pointer.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Ident:
		return v == nil
	case *Block:
		return v == nil
	case *Literal:
		return v == nil
	case *Function:
		return v == nil
	case *Generic:
		return v == nil
	}
	return false
}
