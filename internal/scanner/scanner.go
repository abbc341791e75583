// Package scanner discovers the HTML and JavaScript files of a project.
package scanner

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/zeebo/xxh3"

	"webcheck/internal/config"
	"webcheck/util"
)

type Kind int

const (
	KindHTML Kind = iota
	KindJS
)

func (k Kind) String() string {
	if k == KindHTML {
		return "html"
	}
	return "js"
}

var extensions = map[string]Kind{
	".html": KindHTML,
	".htm":  KindHTML,
	".js":   KindJS,
	".mjs":  KindJS,
	".cjs":  KindJS,
	".jsx":  KindJS,
	".ts":   KindJS,
	".mts":  KindJS,
	".cts":  KindJS,
	".tsx":  KindJS,
}

// File is a discovered source file.
type File struct {
	Path    string
	RelPath string // slash separated, relative to the project root
	Kind    Kind
	Size    int64
	Digest  string
}

// KindOf reports whether path is a file webcheck analyses.
func KindOf(path string) (Kind, bool) {
	k, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

type matcher struct {
	base string
	gi   *ignore.GitIgnore
}

// Discover walks root and returns the files to check, ordered by relative path.
func Discover(ctx context.Context, root string, cfg config.Config) ([]File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var ignores []matcher
	if cfg.UseGitignore {
		ignores = loadGitignores(root)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if !cfg.Recursive ||
				(cfg.IgnoreDotDirs && strings.HasPrefix(name, ".")) ||
				slices.Contains(cfg.ExcludeDirs, name) ||
				ignored(ignores, path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		kind, ok := KindOf(path)
		if !ok || !d.Type().IsRegular() || ignored(ignores, path, false) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		digest, err := Digest(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", rel, err)
		}
		files = append(files, File{Path: path, RelPath: rel, Kind: kind, Size: fi.Size(), Digest: digest})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadGitignores compiles the .gitignore of the project and, when the
// project sits inside a repository, the one at the repository root.
func loadGitignores(root string) []matcher {
	dirs := []string{root}
	if gitRoot, ok := util.FindGitRoot(root); ok && gitRoot != root {
		dirs = append(dirs, gitRoot)
	}

	var out []matcher
	for _, dir := range dirs {
		gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
		if err != nil {
			continue
		}
		out = append(out, matcher{base: dir, gi: gi})
	}
	return out
}

func ignored(ms []matcher, path string, dir bool) bool {
	for _, m := range ms {
		rel, err := filepath.Rel(m.base, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if dir {
			rel += "/"
		}
		if m.gi.MatchesPath(rel) {
			return true
		}
	}
	return false
}

// Digest returns the hex xxh3 hash of a file's content.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Changed counts files whose digest differs from the previous run.
// A file absent from previous counts as changed.
func Changed(files []File, previous map[string]string) int {
	n := 0
	for _, f := range files {
		if previous[f.RelPath] != f.Digest {
			n++
		}
	}
	return n
}
