package util

import (
	"path/filepath"
	"strings"
)

// PathToURI turns a file path into a file:// URI as used by MCP clients.
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "file://" + path
	}
	return "file://" + filepath.ToSlash(abs)
}

// URIToPath accepts either a file:// URI or a plain path.
func URIToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return filepath.FromSlash(uri[len("file://"):])
	}
	return uri
}
