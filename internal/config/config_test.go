package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBCHECK_HOME", t.TempDir())
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
	if !reflect.DeepEqual(cfg.IgnoredGlobals, []string{"window", "document"}) {
		t.Errorf("expected window and document ignored, got %v", cfg.IgnoredGlobals)
	}
	if cfg.Full() {
		t.Errorf("expected normal level by default")
	}
	if filepath.Base(cfg.DBPath) != "webcheck.db" {
		t.Errorf("expected webcheck.db, got %s", cfg.DBPath)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("WEBCHECK_HOME", t.TempDir())
	dir := t.TempDir()
	yml := `level: full
exclude_dirs: [vendor]
checks:
  js: false
workers: 2
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WEBCHECK_WORKERS", "6")
	t.Setenv("WEBCHECK_IGNORED_GLOBALS", "window, document, $")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Full() {
		t.Errorf("expected full level from file")
	}
	if !reflect.DeepEqual(cfg.ExcludeDirs, []string{"vendor"}) {
		t.Errorf("expected [vendor], got %v", cfg.ExcludeDirs)
	}
	if cfg.Checks.JS || !cfg.Checks.HTML {
		t.Errorf("expected js disabled and html kept, got %+v", cfg.Checks)
	}
	if cfg.Workers != 6 {
		t.Errorf("expected env to override workers, got %d", cfg.Workers)
	}
	if !reflect.DeepEqual(cfg.IgnoredGlobals, []string{"window", "document", "$"}) {
		t.Errorf("unexpected ignored globals %v", cfg.IgnoredGlobals)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("level: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Errorf("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad level", func(c *Config) { c.Level = "verbose" }, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
		{"bad format", func(c *Config) { c.Format = "pdf" }, true},
		{"nothing enabled", func(c *Config) { c.Checks = Checks{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHomePriority(t *testing.T) {
	t.Setenv("WEBCHECK_HOME", "/opt/webcheck")
	if got, _ := Home(); got != "/opt/webcheck" {
		t.Errorf("expected /opt/webcheck, got %s", got)
	}

	t.Setenv("WEBCHECK_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	if got, _ := Home(); got != filepath.Join("/tmp/cache", "webcheck") {
		t.Errorf("expected /tmp/cache/webcheck, got %s", got)
	}
}
