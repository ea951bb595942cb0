package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Trace.MaxDepth != 15 {
		t.Errorf("expected default max depth 15, got %d", cfg.Trace.MaxDepth)
	}
	if cfg.Trace.Parallelism != 4 {
		t.Errorf("expected default parallelism 4, got %d", cfg.Trace.Parallelism)
	}
	if cfg.Classifier.Enabled {
		t.Error("classifier should be disabled by default")
	}
	if cfg.Classifier.Model == "" {
		t.Error("expected a default classifier model")
	}
	if len(cfg.Heuristics.EntryNameHints) == 0 {
		t.Error("expected default entry name hints")
	}
	if len(cfg.Heuristics.EntryPathHints) == 0 {
		t.Error("expected default entry path hints")
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("expected no error for nonexistent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config")
	}
	if cfg.Trace.MaxDepth != 15 {
		t.Errorf("expected default max depth, got %d", cfg.Trace.MaxDepth)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
trace:
  max_depth: 25

classifier:
  enabled: true
  model: gpt-4o
  api_key_env: MY_OPENAI_KEY

heuristics:
  entry_name_hints:
    - handle
    - serve
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "flowatlas.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Trace.MaxDepth != 25 {
		t.Errorf("expected max depth 25, got %d", cfg.Trace.MaxDepth)
	}
	// Unset values keep their defaults.
	if cfg.Trace.Parallelism != 4 {
		t.Errorf("expected default parallelism, got %d", cfg.Trace.Parallelism)
	}

	if !cfg.Classifier.Enabled {
		t.Error("expected classifier enabled")
	}
	if cfg.Classifier.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", cfg.Classifier.Model)
	}
	if cfg.Classifier.APIKeyEnv != "MY_OPENAI_KEY" {
		t.Errorf("expected api key env MY_OPENAI_KEY, got %s", cfg.Classifier.APIKeyEnv)
	}

	if len(cfg.Heuristics.EntryNameHints) != 2 || cfg.Heuristics.EntryNameHints[1] != "serve" {
		t.Errorf("unexpected entry name hints: %v", cfg.Heuristics.EntryNameHints)
	}
	if len(cfg.Heuristics.EntryPathHints) == 0 {
		t.Error("expected path hints to keep their defaults")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	content := "trace:\n  max_depth: 7\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "flowatlas.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config from dir: %v", err)
	}
	if cfg.Trace.MaxDepth != 7 {
		t.Errorf("expected max depth 7, got %d", cfg.Trace.MaxDepth)
	}
}
