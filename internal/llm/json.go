package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a completion that came back but could not be
// decoded into the expected JSON shape. Callers use it to distinguish
// a malformed response from a transport failure.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse LLM response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractJSON pulls the first JSON object out of an LLM response,
// tolerating markdown fences and surrounding prose.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown fences if present.
	if strings.Contains(s, "```") {
		if block := extractFencedBlock(s); block != "" {
			s = block
		}
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Find matching closing brace, skipping braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func extractFencedBlock(s string) string {
	start := strings.Index(s, "```json")
	if start == -1 {
		start = strings.Index(s, "```")
		if start == -1 {
			return ""
		}
	}

	rest := s[start:]
	nl := strings.Index(rest, "\n")
	if nl == -1 {
		return ""
	}
	body := rest[nl+1:]

	end := strings.Index(body, "```")
	if end == -1 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:end])
}

// CompleteJSON runs a completion and decodes the response into out.
// Decode failures come back as *ParseError with the raw text attached
// so callers can log it and fall back.
func CompleteJSON(ctx context.Context, client Client, req Request, out any) error {
	raw, err := client.Complete(ctx, req)
	if err != nil {
		return err
	}

	extracted := ExtractJSON(raw)
	if extracted == "" {
		return &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object in response")}
	}

	if err := json.Unmarshal([]byte(extracted), out); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}
