package checks

import (
	"fmt"

	"webcheck/internal/jsscope"
	"webcheck/internal/outline"
	"webcheck/internal/scanner"
)

// OutlineFile builds and validates the outline of a single HTML file.
func OutlineFile(path string) (*outline.Node, outline.Result, error) {
	if k, ok := scanner.KindOf(path); !ok || k != scanner.KindHTML {
		return nil, outline.Result{}, fmt.Errorf("%s is not an HTML file", path)
	}
	doc, err := loadDocument(path)
	if err != nil {
		return nil, outline.Result{}, fmt.Errorf("parse %s: %w", path, err)
	}
	skel := outline.Skeleton(doc)
	return skel, outline.Validate(skel), nil
}

// ScopeFile parses a script file and builds its scope tree.
func ScopeFile(path string) (*jsscope.Tree, error) {
	f, err := loadScript(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return jsscope.Build(f.Program), nil
}

// UndeclaredFile lists the undeclared variables of a script file, skipping
// the excluded names.
func UndeclaredFile(path string, excluded []string) ([]jsscope.Occurrence, error) {
	tree, err := ScopeFile(path)
	if err != nil {
		return nil, err
	}
	return jsscope.Undeclared(tree, jsscope.WithExclusions(excluded...)), nil
}
