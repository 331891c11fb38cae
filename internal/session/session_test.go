package session

import (
	"context"
	"regexp"
	"testing"

	"groundwork/internal/store"
	"groundwork/internal/types"
)

func TestNewEmailAlias_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^intake-[0-9a-f]{8}@$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		alias := NewEmailAlias()
		if !pattern.MatchString(alias) {
			t.Fatalf("Alias %q does not match intake-<8 hex>@", alias)
		}
		if seen[alias] {
			t.Fatalf("Alias %q repeated", alias)
		}
		seen[alias] = true
	}
}

func TestAppendTurns_Ordering(t *testing.T) {
	history := types.NewChatHistory()
	sessionID := NewSessionID()

	AppendUserTurn(history, sessionID, "hello")
	AppendAssistantTurn(history, sessionID, "hi there", nil)

	if len(history.Turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(history.Turns))
	}
	if history.Turns[0].Role != types.RoleUser || history.Turns[0].Message != "hello" {
		t.Errorf("First turn wrong: %+v", history.Turns[0])
	}
	if history.Turns[1].Role != types.RoleAssistant {
		t.Errorf("Second turn should be assistant, got %s", history.Turns[1].Role)
	}
	if history.Turns[1].SessionID != sessionID {
		t.Errorf("Session id not carried on assistant turn")
	}
	if history.Turns[0].Timestamp.IsZero() {
		t.Error("Expected turn timestamp set")
	}
}

func TestAppendAssistantTurn_CarriesAnalysis(t *testing.T) {
	history := types.NewChatHistory()
	analysis := &types.TurnAnalysis{
		Plan: &types.ActionPlan{Action: "ask_about_scope", Confidence: 0.7},
	}
	AppendAssistantTurn(history, "s1", "what's the scope?", analysis)

	got := history.Turns[0].Analysis
	if got == nil || got.Plan == nil {
		t.Fatal("Expected analysis carried on the turn")
	}
	if got.Plan.Action != "ask_about_scope" {
		t.Errorf("Expected ask_about_scope, got %s", got.Plan.Action)
	}
}

func TestPhase_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	status := GetPhase(ctx, st, "p1")
	if status.Phase != PhaseDone {
		t.Errorf("Expected done before any turn, got %s", status.Phase)
	}

	SetPhase(ctx, st, "p1", PhaseAnalyzing)
	status = GetPhase(ctx, st, "p1")
	if status.Phase != PhaseAnalyzing {
		t.Errorf("Expected analyzing, got %s", status.Phase)
	}
	if status.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}
}
