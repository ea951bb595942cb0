package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the flowatlas configuration.
type Config struct {
	Trace      TraceConfig      `yaml:"trace"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
}

// TraceConfig bounds flow tracing.
type TraceConfig struct {
	MaxDepth    int `yaml:"max_depth"`
	Parallelism int `yaml:"parallelism"`
}

// ClassifierConfig configures the LLM classifier for entry-point detection.
type ClassifierConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// HeuristicsConfig holds the substring rules the heuristic fallback uses.
type HeuristicsConfig struct {
	EntryNameHints []string `yaml:"entry_name_hints"`
	EntryPathHints []string `yaml:"entry_path_hints"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Trace: TraceConfig{
			MaxDepth:    15,
			Parallelism: 4,
		},
		Classifier: ClassifierConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Heuristics: HeuristicsConfig{
			EntryNameHints: []string{"handle", "screen", "page"},
			EntryPathHints: []string{"screen", "page", "route"},
		},
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for flowatlas.yaml in the current directory.
func Load(configPath string) (*Config, error) {
	defaults := Default()

	if configPath == "" {
		configPath = "flowatlas.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults.Merge(&fileCfg)
	return defaults, nil
}

// LoadFromDir loads configuration from the specified directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "flowatlas.yaml"))
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Trace.MaxDepth > 0 {
		c.Trace.MaxDepth = other.Trace.MaxDepth
	}
	if other.Trace.Parallelism > 0 {
		c.Trace.Parallelism = other.Trace.Parallelism
	}
	if other.Classifier.Enabled {
		c.Classifier.Enabled = true
	}
	if other.Classifier.Model != "" {
		c.Classifier.Model = other.Classifier.Model
	}
	if other.Classifier.APIKeyEnv != "" {
		c.Classifier.APIKeyEnv = other.Classifier.APIKeyEnv
	}
	if len(other.Heuristics.EntryNameHints) > 0 {
		c.Heuristics.EntryNameHints = other.Heuristics.EntryNameHints
	}
	if len(other.Heuristics.EntryPathHints) > 0 {
		c.Heuristics.EntryPathHints = other.Heuristics.EntryPathHints
	}
}
