package classifier

import (
	"context"
	"encoding/json"
	"testing"

	"groundwork/internal/store"
)

func TestClassify_FieldIntents(t *testing.T) {
	c := New()

	cases := []struct {
		message string
		intent  string
	}{
		{"budget is $5,000", IntentBudgetSet},
		{"we have about 10000 to spend", IntentBudgetSet},
		{"we need it done by march", IntentTimelineSet},
		{"the deadline is the end of next month", IntentTimelineSet},
		{"i want to build a website for my bakery", IntentScopeDefine},
		{"deliverables are the design files and the final site", IntentDeliverablesDefine},
		{"we're blocked on the api from the other vendor", IntentDependenciesDefine},
	}

	for _, tc := range cases {
		result := c.Classify(tc.message)
		if result.Intent != tc.intent {
			t.Errorf("Classify(%q) = %s, want %s", tc.message, result.Intent, tc.intent)
		}
		if result.Confidence <= 0 || result.Confidence > 1 {
			t.Errorf("Classify(%q) confidence %v out of range", tc.message, result.Confidence)
		}
	}
}

func TestClassify_ConversationalIntents(t *testing.T) {
	c := New()

	cases := []struct {
		message string
		intent  string
	}{
		{"hello", IntentGreeting},
		{"yes that's right", IntentResponsePositive},
		{"no that's wrong", IntentResponseNegative},
		{"thank you so much", IntentThanks},
	}

	for _, tc := range cases {
		result := c.Classify(tc.message)
		if result.Intent != tc.intent {
			t.Errorf("Classify(%q) = %s, want %s", tc.message, result.Intent, tc.intent)
		}
	}
}

func TestClassify_CannedAnswerOnlyForFastPathIntents(t *testing.T) {
	c := New()

	result := c.Classify("budget is $5,000")
	if result.Answer == "" {
		t.Error("Expected a canned answer for a budget message")
	}

	result = c.Classify("what's a reasonable budget for a website")
	if result.Intent == IntentQuestionGeneral && result.Answer != "" {
		t.Errorf("General questions must not carry a canned answer, got %q", result.Answer)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	c := New()
	result := c.Classify("   ")
	if result.Intent != IntentUnknown {
		t.Errorf("Expected unknown intent for empty input, got %s", result.Intent)
	}
	if result.Confidence != 0 {
		t.Errorf("Expected zero confidence for empty input, got %v", result.Confidence)
	}
}

func TestClassify_ClearMessageBeatsAmbiguous(t *testing.T) {
	c := New()

	clear := c.Classify("budget is $5,000")
	ambiguous := c.Classify("well it depends on a lot of things maybe")
	if clear.Confidence <= ambiguous.Confidence {
		t.Errorf("Expected clear budget message (%.2f) to score above ambiguous text (%.2f)",
			clear.Confidence, ambiguous.Confidence)
	}
}

func TestLoadOrTrain_PersistsModel(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	c := LoadOrTrain(ctx, st)
	if c == nil {
		t.Fatal("Expected a classifier")
	}

	raw, err := st.Get(ctx, store.IntentModelKey)
	if err != nil {
		t.Fatalf("Expected model persisted to store: %v", err)
	}

	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		t.Fatalf("Persisted model is not valid JSON: %v", err)
	}
	if model.Version != ModelVersion {
		t.Errorf("Expected version %s, got %s", ModelVersion, model.Version)
	}
	if len(model.Intents) < 15 {
		t.Errorf("Expected the full intent taxonomy, got %d intents", len(model.Intents))
	}
}

func TestLoadOrTrain_RetrainsOnStaleVersion(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	stale := Model{Version: "0"}
	data, _ := json.Marshal(stale)
	if err := st.Set(ctx, store.IntentModelKey, data); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	c := LoadOrTrain(ctx, st)
	result := c.Classify("budget is $5,000")
	if result.Intent != IntentBudgetSet {
		t.Errorf("Retrained model misclassified: got %s", result.Intent)
	}

	raw, err := st.Get(ctx, store.IntentModelKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var model Model
	json.Unmarshal(raw, &model)
	if model.Version != ModelVersion {
		t.Errorf("Expected store updated to version %s, got %s", ModelVersion, model.Version)
	}
}

func TestLoadOrTrain_ReusesPersistedModel(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	first := LoadOrTrain(ctx, st)
	second := LoadOrTrain(ctx, st)

	a := first.Classify("we need it done by march")
	b := second.Classify("we need it done by march")
	if a.Intent != b.Intent {
		t.Errorf("Persisted model disagrees with trained model: %s vs %s", a.Intent, b.Intent)
	}
}
