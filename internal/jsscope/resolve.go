package jsscope

import "webcheck/internal/jsast"

type resolveOptions struct {
	excluded map[string]bool
	within   ScopeID
}

// Option configures Undeclared.
type Option func(*resolveOptions)

// WithExclusions names globals that are never reported, e.g. window.
func WithExclusions(names ...string) Option {
	return func(o *resolveOptions) {
		for _, n := range names {
			o.excluded[n] = true
		}
	}
}

// WithinScope restricts the query to the subtree of id: only occurrences
// inside it are candidates and lookups stop after checking id itself.
func WithinScope(id ScopeID) Option {
	return func(o *resolveOptions) {
		o.within = id
	}
}

// Lookup walks the scope chain from `from` and returns the first
// declaration or parameter named name. The walk stops after checking
// boundary; pass NoScope to walk up to the root. The innermost declaration
// wins.
func (t *Tree) Lookup(name string, from, boundary ScopeID) (Occurrence, bool) {
	if !t.Valid(from) {
		return Occurrence{}, false
	}
	for id := from; id != NoScope; id = t.Scopes[id].Parent {
		for _, v := range t.Scopes[id].Vars {
			if v.Name == name && v.Kind.Declares() {
				return v, true
			}
		}
		if id == boundary {
			break
		}
	}
	return Occurrence{}, false
}

// IsDeclared reports whether name is declared in the chain from `from` up to
// and including boundary.
func (t *Tree) IsDeclared(name string, from, boundary ScopeID) bool {
	_, ok := t.Lookup(name, from, boundary)
	return ok
}

// Undeclared returns the assignments and bare references whose name has no
// declaration or parameter anywhere in their scope chain.
func Undeclared(t *Tree, opts ...Option) []Occurrence {
	o := resolveOptions{excluded: map[string]bool{}, within: 0}
	for _, opt := range opts {
		opt(&o)
	}
	if !t.Valid(o.within) {
		return nil
	}
	boundary := o.within
	if boundary == 0 {
		boundary = NoScope
	}

	var out []Occurrence
	t.Walk(o.within, func(s *Scope) bool {
		for _, v := range s.Vars {
			if v.Kind != Assignment && v.Kind != BareReference {
				continue
			}
			if o.excluded[v.Name] {
				continue
			}
			if !t.IsDeclared(v.Name, s.ID, boundary) {
				out = append(out, v)
			}
		}
		return true
	})
	return out
}

// LeakedVars returns every var declaration that is not nested inside a
// function: var at global or module level and var inside blocks that no
// function encloses. Such names become properties of the global scope.
func LeakedVars(t *Tree) []Occurrence {
	var out []Occurrence
	t.Walk(0, func(s *Scope) bool {
		if s.Kind == Function || s.Kind == ArrowExpression {
			return false
		}
		for _, v := range s.Vars {
			if v.Kind == Declaration && v.Form == jsast.FormVar {
				out = append(out, v)
			}
		}
		return true
	})
	return out
}

// GlobalDeclarations returns every declaration of the root scope together
// with the var declarations that leak into it from blocks.
func GlobalDeclarations(t *Tree) []Occurrence {
	var out []Occurrence
	for _, v := range t.Root().Vars {
		if v.Kind == Declaration {
			out = append(out, v)
		}
	}
	for _, v := range LeakedVars(t) {
		if v.Scope != 0 {
			out = append(out, v)
		}
	}
	return out
}

// VarDeclarations returns every var declaration of the tree.
func VarDeclarations(t *Tree) []Occurrence {
	var out []Occurrence
	for _, v := range t.Occurrences() {
		if v.Kind == Declaration && v.Form == jsast.FormVar {
			out = append(out, v)
		}
	}
	return out
}
