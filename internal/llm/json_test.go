package llm

import (
	"context"
	"errors"
	"testing"
)

func TestExtractJSON_Plain(t *testing.T) {
	got := ExtractJSON(`{"a": 1}`)
	if got != `{"a": 1}` {
		t.Errorf("Expected plain object back, got %q", got)
	}
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	input := `Here is the analysis you asked for:
{"confidence": 0.8, "fields": {"scope": "a website"}}
Let me know if you need anything else.`
	got := ExtractJSON(input)
	want := `{"confidence": 0.8, "fields": {"scope": "a website"}}`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	input := "```json\n{\"ok\": true}\n```"
	got := ExtractJSON(input)
	if got != `{"ok": true}` {
		t.Errorf("Expected fenced object, got %q", got)
	}
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	input := `{"outer": {"inner": {"deep": 1}}}`
	got := ExtractJSON(input)
	if got != input {
		t.Errorf("Expected full nested object, got %q", got)
	}
}

func TestExtractJSON_BracesInStrings(t *testing.T) {
	input := `{"note": "use {curly} braces", "n": 1}`
	got := ExtractJSON(input)
	if got != input {
		t.Errorf("Expected braces in strings to be skipped, got %q", got)
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	if got := ExtractJSON("no json here"); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, req Request) (string, error) {
	return f.response, f.err
}

func TestCompleteJSON_Decodes(t *testing.T) {
	client := &fakeClient{response: `Sure! {"confidence": 0.75}`}

	var out struct {
		Confidence float64 `json:"confidence"`
	}
	if err := CompleteJSON(context.Background(), client, Request{}, &out); err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if out.Confidence != 0.75 {
		t.Errorf("Expected 0.75, got %v", out.Confidence)
	}
}

func TestCompleteJSON_ParseError(t *testing.T) {
	client := &fakeClient{response: "I cannot answer in JSON."}

	var out map[string]any
	err := CompleteJSON(context.Background(), client, Request{}, &out)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if parseErr.Raw != "I cannot answer in JSON." {
		t.Errorf("Expected raw response preserved, got %q", parseErr.Raw)
	}
}

func TestCompleteJSON_TransportError(t *testing.T) {
	wantErr := errors.New("connection refused")
	client := &fakeClient{err: wantErr}

	var out map[string]any
	err := CompleteJSON(context.Background(), client, Request{}, &out)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected transport error passed through, got %v", err)
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		t.Error("Transport failure must not be reported as a parse error")
	}
}
