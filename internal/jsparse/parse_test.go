package jsparse

import (
	"errors"
	"testing"

	"webcheck/internal/jsast"
)

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"js/app.js", JavaScript, true},
		{"lib/util.MJS", JavaScript, true},
		{"src/main.ts", TypeScript, true},
		{"src/view.tsx", TSX, true},
		{"style.css", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageFor(tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestParseProgram(t *testing.T) {
	src := []byte(`"use strict";
// greeting
var greeting = "hi";
let count = 3;
function greet(name, times = 2) {
	const msg = greeting + name;
	return msg;
}
button.onclick = () => greet("x");
`)

	f, err := Parse(src, JavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Program.Module {
		t.Errorf("expected a script, got a module")
	}
	if len(f.Program.Directives) != 1 || f.Program.Directives[0] != "use strict" {
		t.Errorf("expected [use strict] directives, got %v", f.Program.Directives)
	}

	var decl *jsast.VarDecl
	var fn *jsast.Function
	for _, n := range f.Program.Body {
		switch n := n.(type) {
		case *jsast.VarDecl:
			if decl == nil {
				decl = n
			}
		case *jsast.Function:
			fn = n
		}
	}
	if decl == nil || decl.Form != jsast.FormVar {
		t.Fatalf("expected a var declaration, got %#v", decl)
	}
	target, ok := decl.Decls[0].Target.(*jsast.Ident)
	if !ok || target.Name != "greeting" {
		t.Errorf("expected target greeting, got %#v", decl.Decls[0].Target)
	}
	if target.Line != 3 || target.Column != 4 {
		t.Errorf("expected greeting at 3:4, got %d:%d", target.Line, target.Column)
	}
	lit, ok := decl.Decls[0].Init.(*jsast.Literal)
	if !ok || lit.Value != "hi" {
		t.Errorf("expected literal hi, got %#v", decl.Decls[0].Init)
	}

	if fn == nil {
		t.Fatalf("expected a function declaration")
	}
	if fn.Name == nil || fn.Name.Name != "greet" {
		t.Errorf("expected function greet, got %#v", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	def, ok := fn.Params[1].Default.(*jsast.Literal)
	if !ok || def.Value != float64(2) {
		t.Errorf("expected default 2, got %#v", fn.Params[1].Default)
	}

	if len(f.EventProps) != 1 || f.EventProps[0].Name != "onclick" {
		t.Fatalf("expected onclick event property, got %v", f.EventProps)
	}
	if f.EventProps[0].Loc.Line != 9 {
		t.Errorf("expected onclick on line 9, got %d", f.EventProps[0].Loc.Line)
	}
}

func TestParseModule(t *testing.T) {
	src := []byte(`import { a, b as c } from "./lib.js";
export const d = a + c;
`)
	f, err := Parse(src, JavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !f.Program.Module {
		t.Errorf("expected a module")
	}

	imp, ok := f.Program.Body[0].(*jsast.Import)
	if !ok {
		t.Fatalf("expected an import, got %T", f.Program.Body[0])
	}
	var names []string
	for _, b := range imp.Bindings {
		names = append(names, b.Name)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("expected bindings [a c], got %v", names)
	}
	if imp.Source != "./lib.js" {
		t.Errorf("expected source ./lib.js, got %s", imp.Source)
	}
}

func TestParseTypeScriptParams(t *testing.T) {
	src := []byte(`function area(width: number, height: number = 1): number {
	return width * height;
}
`)
	f, err := Parse(src, TypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fn, ok := f.Program.Body[0].(*jsast.Function)
	if !ok {
		t.Fatalf("expected a function, got %T", f.Program.Body[0])
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if id, ok := fn.Params[0].Target.(*jsast.Ident); !ok || id.Name != "width" {
		t.Errorf("expected width, got %#v", fn.Params[0].Target)
	}
	if fn.Params[1].Default == nil {
		t.Errorf("expected a default for height")
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("var x = ;\nlet y = 1;\n"), JavaScript)
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Line != 1 {
		t.Errorf("expected error on line 1, got %d", se.Line)
	}
}

func TestParseForOfDeclaration(t *testing.T) {
	f, err := Parse([]byte("for (const item of items) { total = item; }\n"), JavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	loop, ok := f.Program.Body[0].(*jsast.Generic)
	if !ok {
		t.Fatalf("expected a generic loop node, got %T", f.Program.Body[0])
	}
	decl, ok := loop.Children[0].(*jsast.VarDecl)
	if !ok || decl.Form != jsast.FormConst {
		t.Fatalf("expected a const declaration first, got %#v", loop.Children[0])
	}
}
