package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Home returns the directory webcheck keeps its state in.
// Priority: $WEBCHECK_HOME -> $XDG_CACHE_HOME/webcheck -> ~/.cache/webcheck (Unix) / %LOCALAPPDATA%\webcheck (Windows)
func Home() (string, error) {
	// Priority 1: WEBCHECK_HOME environment variable
	if home := os.Getenv("WEBCHECK_HOME"); home != "" {
		return home, nil
	}

	// Priority 2: XDG_CACHE_HOME on Unix-like systems
	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "webcheck"), nil
		}
	}

	// Priority 3: Platform-specific defaults
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "webcheck"), nil
	default:
		return filepath.Join(userHome, ".cache", "webcheck"), nil
	}
}

// DefaultDBPath returns the location of the run history database.
func DefaultDBPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "webcheck.db"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
