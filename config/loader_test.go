package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_Precedence(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	nested := filepath.Join(project, "packages", "web")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
analysis:
  confidence_threshold: 60
  workers: 2
log:
  level: warn
`)
	writeConfig(t, filepath.Join(project, ProjectConfigFile), `
paths:
  source: src
analysis:
  confidence_threshold: 75
  check_test_coverage: false
`)

	l := NewLoader(nil)
	l.SetHome(home)
	l.SetDir(nested)

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Analysis.ConfidenceThreshold != 75 {
		t.Errorf("project config should win, got threshold %d", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Analysis.Workers != 2 {
		t.Errorf("user config should apply where project is silent, got workers %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.CheckTestCoverage {
		t.Error("project config should switch off test coverage")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected user log level warn, got %q", cfg.Log.Level)
	}
	if cfg.Paths.Project != project {
		t.Errorf("project root should be the config's directory, got %q", cfg.Paths.Project)
	}
	if cfg.SourceRoot() != filepath.Join(project, "src") {
		t.Errorf("relative source should resolve against the config, got %q", cfg.SourceRoot())
	}
}

func TestLoader_NoConfigFiles(t *testing.T) {
	dir := t.TempDir()

	l := NewLoader(nil)
	l.SetHome(t.TempDir())
	l.SetDir(dir)

	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.ConfidenceThreshold != 50 {
		t.Errorf("expected defaults, got threshold %d", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Paths.Project == "" {
		t.Error("expected project root to be detected")
	}
}

func TestLoader_InvalidProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, ProjectConfigFile), "analysis:\n  route: sideways\n")

	l := NewLoader(nil)
	l.SetHome(t.TempDir())
	l.SetDir(dir)

	if _, err := l.Load(); err == nil {
		t.Error("expected validation error for unknown route")
	}
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := NewLoader(nil)
	l.SetHome(home)

	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected user config at %s: %v", path, err)
	}

	// A second call leaves the existing file alone.
	writeConfig(t, path, "analysis:\n  workers: 3\n")
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Workers != 3 {
		t.Errorf("existing user config was overwritten")
	}
}
