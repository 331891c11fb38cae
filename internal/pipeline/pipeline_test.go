package pipeline

import (
	"context"
	"errors"

	"groundwork/internal/classifier"
	"groundwork/internal/config"
	"groundwork/internal/llm"
)

// stubLLM returns a fixed response, a fixed error, or delegates to fn.
type stubLLM struct {
	response string
	err      error
	fn       func(req llm.Request) (string, error)
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(req)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// failingLLM simulates an unreachable provider, forcing every stage
// onto its fallback path.
func failingLLM() *stubLLM {
	return &stubLLM{err: errors.New("connection refused")}
}

// stubIntents returns a fixed classification regardless of input.
type stubIntents struct {
	result classifier.Classification
}

func (s *stubIntents) Classify(text string) classifier.Classification {
	return s.result
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Pipeline.StageTimeout = "2s"
	return cfg
}
