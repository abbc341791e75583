// Package config loads webcheck settings from defaults, an optional
// .webcheck.yaml in the project and WEBCHECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file.
const FileName = ".webcheck.yaml"

type Level string

const (
	LevelNormal Level = "normal"
	// LevelFull adds the informational checks.
	LevelFull Level = "full"
)

type Checks struct {
	HTML    bool `yaml:"html"`
	Outline bool `yaml:"outline"`
	JS      bool `yaml:"js"`
}

type Config struct {
	// Discovery
	ExcludeDirs   []string `yaml:"exclude_dirs"`
	IgnoreDotDirs bool     `yaml:"ignore_dot_dirs"`
	Recursive     bool     `yaml:"recursive"`
	UseGitignore  bool     `yaml:"use_gitignore"`

	// Analysis
	IgnoredGlobals []string `yaml:"ignored_globals"`
	Level          Level    `yaml:"level"`
	Checks         Checks   `yaml:"checks"`
	Workers        int      `yaml:"workers"`

	// Output and history
	Format  string `yaml:"format"`
	DBPath  string `yaml:"db_path"`
	APIAddr string `yaml:"api_addr"`
}

func Default() Config {
	return Config{
		ExcludeDirs:    []string{"auto-validation", "__MACOSX", "node_modules"},
		IgnoreDotDirs:  true,
		Recursive:      true,
		UseGitignore:   true,
		IgnoredGlobals: []string{"window", "document"},
		Level:          LevelNormal,
		Checks:         Checks{HTML: true, Outline: true, JS: true},
		Workers:        runtime.NumCPU(),
		Format:         "text",
		APIAddr:        ":8095",
	}
}

// Load returns the configuration for a project directory.
func Load(projectDir string) (Config, error) {
	cfg := Default()
	if projectDir != "" {
		if err := LoadFile(filepath.Join(projectDir, FileName), &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	cfg.applyEnv()

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DBPath == "" {
		if p, err := DefaultDBPath(); err == nil {
			cfg.DBPath = p
		}
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ExcludeDirs = envList("WEBCHECK_EXCLUDE_DIRS", c.ExcludeDirs)
	c.IgnoreDotDirs = envBool("WEBCHECK_IGNORE_DOT_DIRS", c.IgnoreDotDirs)
	c.Recursive = envBool("WEBCHECK_RECURSIVE", c.Recursive)
	c.UseGitignore = envBool("WEBCHECK_GITIGNORE", c.UseGitignore)
	c.IgnoredGlobals = envList("WEBCHECK_IGNORED_GLOBALS", c.IgnoredGlobals)
	c.Level = Level(envOr("WEBCHECK_LEVEL", string(c.Level)))
	c.Checks.HTML = envBool("WEBCHECK_CHECK_HTML", c.Checks.HTML)
	c.Checks.Outline = envBool("WEBCHECK_CHECK_OUTLINE", c.Checks.Outline)
	c.Checks.JS = envBool("WEBCHECK_CHECK_JS", c.Checks.JS)
	c.Workers = envInt("WEBCHECK_WORKERS", c.Workers)
	c.Format = envOr("WEBCHECK_FORMAT", c.Format)
	c.DBPath = envOr("WEBCHECK_DB", c.DBPath)
	c.APIAddr = envOr("WEBCHECK_API_ADDR", c.APIAddr)
}

func (c Config) Validate() error {
	switch c.Level {
	case LevelNormal, LevelFull:
	default:
		return fmt.Errorf("unknown level %q (want normal or full)", c.Level)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch strings.ToLower(c.Format) {
	case "text", "json", "markdown", "md", "html":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if !c.Checks.HTML && !c.Checks.Outline && !c.Checks.JS {
		return fmt.Errorf("all checks are disabled")
	}
	return nil
}

// Full reports whether informational checks run.
func (c Config) Full() bool {
	return c.Level == LevelFull
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
