package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"groundwork/internal/types"
)

func testPlanner(client *stubLLM) *Planner {
	cfg := testConfig()
	return NewPlanner(client, cfg.LLM, cfg.Pipeline.HistoryWindow)
}

func TestPlan_FallbackExploratoryBudgetQuestion(t *testing.T) {
	p := testPlanner(failingLLM())

	gaps := types.NewGapRecord()
	gaps.CriticalGaps = []string{"budget"}
	learning := types.NewLearningRecord()
	learning.UserPatterns.PreferredQuestionStyle = "exploratory"

	plan := p.Plan(context.Background(), gaps, types.NewKnowledgeRecord(), types.NewChatHistory(), learning)

	if plan.Question != "What's the budget situation for this project?" {
		t.Errorf("Expected the canned budget/exploratory question, got %q", plan.Question)
	}
	if plan.Action != "ask_about_budget" {
		t.Errorf("Expected ask_about_budget, got %s", plan.Action)
	}
	if plan.Confidence != 0.7 {
		t.Errorf("Expected fixed fallback confidence 0.7, got %v", plan.Confidence)
	}
}

func TestPlan_FallbackDefaults(t *testing.T) {
	p := testPlanner(failingLLM())

	// No gaps and no learned style: scope question, direct style.
	plan := p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), types.NewLearningRecord())
	if plan.Action != "ask_about_scope" {
		t.Errorf("Expected scope default, got %s", plan.Action)
	}
	if plan.Question != fallbackQuestions["scope"]["direct"] {
		t.Errorf("Expected direct scope question, got %q", plan.Question)
	}
	if plan.Timing != "immediate" {
		t.Errorf("Expected immediate timing, got %s", plan.Timing)
	}
}

func TestPlan_DelayedTimingForLowEngagement(t *testing.T) {
	p := testPlanner(failingLLM())

	// Ten short user messages: engagement reads low.
	history := types.NewChatHistory()
	for i := 0; i < 10; i++ {
		history.Turns = append(history.Turns, types.ChatTurn{Role: types.RoleUser, Message: "ok"})
	}

	plan := p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), history, types.NewLearningRecord())
	if plan.Timing != "delayed" {
		t.Errorf("Expected delayed timing for low engagement, got %s", plan.Timing)
	}
}

func TestPlan_AcceptsLLMPlan(t *testing.T) {
	response := `{
		"action": "ask_about_timeline",
		"question": "Since the scope is clear, when do you want to launch?",
		"reasoning": "timeline is next",
		"timing": "immediate",
		"confidence": 0.85
	}`
	p := testPlanner(&stubLLM{response: response})

	plan := p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), types.NewLearningRecord())
	if plan.Action != "ask_about_timeline" {
		t.Errorf("Expected the LLM plan, got %s", plan.Action)
	}
	if plan.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %v", plan.Confidence)
	}
}

func TestPlan_RejectsPlanWithoutQuestion(t *testing.T) {
	p := testPlanner(&stubLLM{response: `{"action": "ask_about_timeline"}`})

	plan := p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), types.NewLearningRecord())
	if plan.Confidence != 0.7 {
		t.Errorf("Expected fallback plan for a question-less response, got %+v", plan)
	}
}

func TestPlan_RecordsInteraction(t *testing.T) {
	p := testPlanner(failingLLM())
	learning := types.NewLearningRecord()

	p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), learning)

	if len(learning.InteractionHistory) != 1 {
		t.Fatalf("Expected one interaction recorded, got %d", len(learning.InteractionHistory))
	}
	in := learning.InteractionHistory[0]
	if in.Action != "ask_about_scope" || in.Confidence != 0.7 {
		t.Errorf("Recorded interaction wrong: %+v", in)
	}
}

func TestPlan_InteractionHistoryCap(t *testing.T) {
	p := testPlanner(failingLLM())
	learning := types.NewLearningRecord()

	for i := 0; i < types.PlanningHistoryCap+20; i++ {
		p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), learning)
	}
	if len(learning.InteractionHistory) != types.PlanningHistoryCap {
		t.Errorf("Expected history capped at %d, got %d", types.PlanningHistoryCap, len(learning.InteractionHistory))
	}
}

func TestPlan_EngagementFromMeanConfidence(t *testing.T) {
	learning := types.NewLearningRecord()
	// Ten low-confidence interactions drag the mean below 0.5; the
	// fallback's 0.7 entry is not enough to lift it.
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 9; i++ {
		learning.AppendInteraction(types.Interaction{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Action:     "ask_about_scope",
			Confidence: 0.2,
		}, types.PlanningHistoryCap)
	}

	p := testPlanner(failingLLM())
	p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), learning)

	if learning.UserPatterns.EngagementLevel != "low" {
		t.Errorf("Expected low engagement from mean confidence, got %s", learning.UserPatterns.EngagementLevel)
	}
}

func TestPlan_ResponseTimeFromTimestampDeltas(t *testing.T) {
	learning := types.NewLearningRecord()
	// Entries 30 minutes apart ending just before now, so the entry the
	// plan itself appends keeps the mean delta around 30 minutes.
	base := time.Now().UTC().Add(-270 * time.Minute)
	for i := 0; i < 9; i++ {
		learning.AppendInteraction(types.Interaction{
			Timestamp:  base.Add(time.Duration(i) * 30 * time.Minute),
			Action:     "ask_about_scope",
			Confidence: 0.7,
		}, types.PlanningHistoryCap)
	}

	p := testPlanner(failingLLM())
	p.Plan(context.Background(), types.NewGapRecord(), types.NewKnowledgeRecord(), types.NewChatHistory(), learning)

	if learning.UserPatterns.ResponseTime != "avg_30_minutes" {
		t.Errorf("Expected avg_30_minutes, got %s", learning.UserPatterns.ResponseTime)
	}
}

func TestConversationContext_StageThresholds(t *testing.T) {
	cases := []struct {
		turns int
		want  string
	}{
		{0, "initial"},
		{4, "initial"},
		{5, "exploration"},
		{9, "exploration"},
		{10, "planning"},
		{19, "planning"},
		{20, "detailed"},
	}
	for _, tc := range cases {
		history := types.NewChatHistory()
		for i := 0; i < tc.turns; i++ {
			history.Turns = append(history.Turns, types.ChatTurn{Role: types.RoleUser, Message: "a medium length message here"})
		}
		cctx := deriveConversationContext(history)
		if cctx.Stage != tc.want {
			t.Errorf("%d turns: stage = %s, want %s", tc.turns, cctx.Stage, tc.want)
		}
	}
}

func TestConversationContext_EngagementFromLength(t *testing.T) {
	long := strings.Repeat("detail ", 20) // >100 chars
	history := types.NewChatHistory()
	for i := 0; i < 5; i++ {
		history.Turns = append(history.Turns, types.ChatTurn{Role: types.RoleUser, Message: long})
	}
	if cctx := deriveConversationContext(history); cctx.UserEngagement != "high" {
		t.Errorf("Expected high engagement for long messages, got %s", cctx.UserEngagement)
	}

	history = types.NewChatHistory()
	for i := 0; i < 5; i++ {
		history.Turns = append(history.Turns, types.ChatTurn{Role: types.RoleUser, Message: "ok"})
	}
	if cctx := deriveConversationContext(history); cctx.UserEngagement != "low" {
		t.Errorf("Expected low engagement for short messages, got %s", cctx.UserEngagement)
	}
}
