// Package llm wraps the text-completion providers behind a single client
// interface. Model selection and token budgets are per-call configuration;
// the pipeline stages attach their own.
package llm

import (
	"context"
	"strings"
)

// Request is one completion call. Model and MaxTokens are opaque
// configuration chosen by the call site.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Client is the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// truncateForLog shortens a string for log output.
func truncateForLog(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
