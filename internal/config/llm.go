package config

import "time"

// LLMConfig configures the completion client and the per-stage model budgets.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Per-stage overrides. Empty model falls back to the top-level model;
	// zero max_tokens falls back to the stage default below.
	Stages map[string]StageModel `yaml:"stages,omitempty"`
}

// StageModel is the model selection and token budget for one call site.
type StageModel struct {
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// Stage call sites. Each pipeline stage attaches its own model/budget, so
// cheap stages can run on a cheap model.
const (
	StageAnalysis  = "analysis"
	StageGaps      = "gaps"
	StagePlanning  = "planning"
	StageExecution = "execution"
	StageLearning  = "learning"
)

// stageTokenDefaults are the token budgets when config is silent.
var stageTokenDefaults = map[string]int{
	StageAnalysis:  512,
	StageGaps:      1024,
	StagePlanning:  768,
	StageExecution: 1024,
	StageLearning:  768,
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
		Timeout:  "120s",
	}
}

// GetTimeout parses the request timeout, falling back to 120s.
func (c LLMConfig) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 120 * time.Second
}

// StageFor resolves the model and token budget for a stage call site.
func (c LLMConfig) StageFor(stage string) StageModel {
	s := c.Stages[stage]
	if s.Model == "" {
		s.Model = c.Model
	}
	if s.MaxTokens == 0 {
		if d, ok := stageTokenDefaults[stage]; ok {
			s.MaxTokens = d
		} else {
			s.MaxTokens = 1024
		}
	}
	return s
}
