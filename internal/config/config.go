// Package config loads and validates groundwork configuration from
// .groundwork/config.yaml, with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all groundwork configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Record store configuration
	Store StoreConfig `yaml:"store"`

	// Pipeline tuning
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	BusyTimeout  string `yaml:"busy_timeout"`
}

// PipelineConfig tunes the five-stage turn pipeline.
type PipelineConfig struct {
	// HistoryWindow is how many recent chat turns each stage sees.
	HistoryWindow int `yaml:"history_window"`

	// FastPathThreshold is the classifier confidence required to skip the LLM.
	FastPathThreshold float64 `yaml:"fast_path_threshold"`

	// StageTimeout bounds each LLM call.
	StageTimeout string `yaml:"stage_timeout"`

	// StoreRetry is the number of retries for transient store failures.
	StoreRetry int `yaml:"store_retry"`
}

// LoggingConfig configures the category file logger. The logging package
// re-reads this section directly to avoid a circular import.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories,omitempty"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "groundwork",
		Version: "0.3.0",

		LLM: DefaultLLMConfig(),

		Store: StoreConfig{
			DatabasePath: ".groundwork/groundwork.db",
			BusyTimeout:  "5s",
		},

		Pipeline: PipelineConfig{
			HistoryWindow:     10,
			FastPathThreshold: 0.8,
			StageTimeout:      "45s",
			StoreRetry:        1,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Path returns the canonical config file location under a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".groundwork", "config.yaml")
}

// Load reads configuration from path, layering it over defaults and applying
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over the file for secrets
// and machine-local paths.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.LLM.Provider == "anthropic" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.Provider == "gemini" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GROUNDWORK_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if path := os.Getenv("GROUNDWORK_DB"); path != "" {
		c.Store.DatabasePath = path
	}
}

// Validate checks invariants that would otherwise surface deep in a turn.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "gemini", "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Pipeline.HistoryWindow <= 0 {
		return fmt.Errorf("pipeline history_window must be positive")
	}
	if c.Pipeline.FastPathThreshold < 0 || c.Pipeline.FastPathThreshold > 1 {
		return fmt.Errorf("pipeline fast_path_threshold must be in [0,1]")
	}
	return nil
}

// GetStageTimeout parses the per-stage LLM timeout, defaulting to 45s.
func (c *Config) GetStageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.StageTimeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// GetBusyTimeout parses the sqlite busy timeout, defaulting to 5s.
func (c *Config) GetBusyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Store.BusyTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
