// Package jsast is a small typed syntax tree for JavaScript and TypeScript
// sources. It keeps only the node kinds that scope analysis distinguishes;
// everything else is carried as a Generic node with its children.
package jsast

// Location is the source position of a node. Line is 1-based, Column is a
// 0-based byte offset within the line, Start and End are byte offsets.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// Pos returns the location itself so that every node embedding a Location
// satisfies Node.
func (l Location) Pos() Location { return l }

func (Location) isNode() {}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Location
	isNode()
}

// DeclForm is the keyword of a variable declaration.
type DeclForm int

const (
	FormNone DeclForm = iota
	FormVar
	FormLet
	FormConst
	FormImport
)

func (f DeclForm) String() string {
	switch f {
	case FormVar:
		return "var"
	case FormLet:
		return "let"
	case FormConst:
		return "const"
	case FormImport:
		return "import"
	default:
		return ""
	}
}

// FuncKind distinguishes the syntactic forms of a function.
type FuncKind int

const (
	FuncDecl FuncKind = iota
	FuncExpr
	FuncArrow
	FuncMethod
)

// LiteralKind is the type of a literal value.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitNull
	LitRegex
)

type Program struct {
	Location
	Body       []Node
	Module     bool
	Directives []string
}

type Block struct {
	Location
	Body []Node
}

// Function covers declarations, expressions, methods and arrow functions.
// Exactly one of Body and Expr is set; Expr is only used by arrow functions
// with an expression body.
type Function struct {
	Location
	Kind   FuncKind
	Name   *Ident
	Params []*Param
	Body   *Block
	Expr   Node
}

// Param is a formal parameter. Target is an *Ident, a pattern or a *Rest.
type Param struct {
	Location
	Target  Node
	Default Node
}

type VarDecl struct {
	Location
	Form  DeclForm
	Decls []*Declarator
}

type Declarator struct {
	Location
	Target Node
	Init   Node
}

type ExprStmt struct {
	Location
	Expr Node
}

// Assign is a plain or compound assignment; Op is "=", "+=", and so on.
type Assign struct {
	Location
	Op    string
	Left  Node
	Right Node
}

type Ident struct {
	Location
	Name string
}

// Member is a property access. Property is an *Ident for dotted access and an
// arbitrary expression when Computed is set.
type Member struct {
	Location
	Object   Node
	Property Node
	Computed bool
}

type Literal struct {
	Location
	Kind  LiteralKind
	Raw   string
	Value any
}

type ObjectPattern struct {
	Location
	Props []Node
}

// PatternProp is a "key: value" entry of an object pattern.
type PatternProp struct {
	Location
	Key   Node
	Value Node
}

type ArrayPattern struct {
	Location
	Elems []Node
}

type AssignPattern struct {
	Location
	Target  Node
	Default Node
}

type Rest struct {
	Location
	Target Node
}

// Catch is the handler of a try statement. Param may be nil.
type Catch struct {
	Location
	Param Node
	Body  *Block
}

type Import struct {
	Location
	Bindings []*Ident
	Source   string
}

// Generic is any other node; Kind is the parser's node kind.
type Generic struct {
	Location
	Kind     string
	Children []Node
}
