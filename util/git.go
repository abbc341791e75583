package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks up from dir looking for a .git entry. It returns the
// repository root, or dir itself when dir is not inside a repository.
func FindGitRoot(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir, false
	}

	for cur := abs; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur, true
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached root
			return abs, false
		}
		cur = parent
	}
}
