package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(Path(t.TempDir()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("Expected default provider anthropic, got %q", cfg.LLM.Provider)
	}
	if cfg.Pipeline.FastPathThreshold != 0.8 {
		t.Errorf("Expected fast path threshold 0.8, got %v", cfg.Pipeline.FastPathThreshold)
	}
	if cfg.Pipeline.HistoryWindow != 10 {
		t.Errorf("Expected history window 10, got %d", cfg.Pipeline.HistoryWindow)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.Pipeline.StageTimeout = "30s"
	if err := cfg.Save(Path(ws)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(Path(ws))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.Provider != "openai" {
		t.Errorf("Expected provider openai, got %q", loaded.LLM.Provider)
	}
	if loaded.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %q", loaded.LLM.Model)
	}
	if got := loaded.GetStageTimeout(); got != 30*time.Second {
		t.Errorf("Expected stage timeout 30s, got %v", got)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	ws := t.TempDir()
	path := Path(ws)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("llm:\n  provider: gemini\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Expected provider gemini, got %q", cfg.LLM.Provider)
	}
	if cfg.Store.DatabasePath == "" {
		t.Error("Expected default store path to survive a partial file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	ws := t.TempDir()
	path := Path(ws)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("llm: ["), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	t.Setenv("GROUNDWORK_DB", "/tmp/other.db")

	cfg, err := Load(Path(t.TempDir()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test-123" {
		t.Errorf("Expected env api key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Store.DatabasePath != "/tmp/other.db" {
		t.Errorf("Expected env db path, got %q", cfg.Store.DatabasePath)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "tarot"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for unknown provider")
	}
}

func TestGetStageTimeout_Fallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.StageTimeout = "not-a-duration"
	if got := cfg.GetStageTimeout(); got != 45*time.Second {
		t.Errorf("Expected 45s fallback, got %v", got)
	}
}

func TestLLMGetTimeout_Fallback(t *testing.T) {
	cfg := DefaultLLMConfig()
	cfg.Timeout = ""
	if got := cfg.GetTimeout(); got != 120*time.Second {
		t.Errorf("Expected 120s fallback, got %v", got)
	}
	cfg.Timeout = "15s"
	if got := cfg.GetTimeout(); got != 15*time.Second {
		t.Errorf("Expected 15s, got %v", got)
	}
}
