package pipeline

import (
	"context"
	"strings"
	"testing"

	"groundwork/internal/types"
)

func testLearner(client *stubLLM) *Learner {
	return NewLearner(client, testConfig().LLM)
}

func TestFallbackInteractionAnalysis_DetailedMessage(t *testing.T) {
	// 180 characters, no question mark.
	message := strings.Repeat("The project covers a storefront. ", 6)[:180]
	if strings.Contains(message, "?") {
		t.Fatal("test message must be question-free")
	}

	analysis := FallbackInteractionAnalysis(message)

	if analysis.ResponseQuality != "high" {
		t.Errorf("responseQuality = %s, want high", analysis.ResponseQuality)
	}
	if analysis.CommunicationStyle != "detailed" {
		t.Errorf("communicationStyle = %s, want detailed", analysis.CommunicationStyle)
	}
	if analysis.PreferredQuestionType != "direct" {
		t.Errorf("preferredQuestionType = %s, want direct", analysis.PreferredQuestionType)
	}
	if analysis.InformationDensity != "high" {
		t.Errorf("informationDensity = %s, want high", analysis.InformationDensity)
	}
}

func TestFallbackInteractionAnalysis_ShortQuestion(t *testing.T) {
	analysis := FallbackInteractionAnalysis("what do you mean?")

	if analysis.PreferredQuestionType != "exploratory" {
		t.Errorf("preferredQuestionType = %s, want exploratory for a question", analysis.PreferredQuestionType)
	}
	if analysis.ResponseQuality != "low" {
		t.Errorf("responseQuality = %s, want low for a short message", analysis.ResponseQuality)
	}
	if analysis.CommunicationStyle != "concise" {
		t.Errorf("communicationStyle = %s, want concise", analysis.CommunicationStyle)
	}
}

func TestComputeEffectiveness(t *testing.T) {
	best := interactionAnalysis{
		ResponseQuality:  "high",
		EngagementLevel:  "high",
		CooperationLevel: "high",
		ClarityLevel:     "clear",
	}
	// 0.5 + 0.3 + 0.2 + 0.2 + 0.1 = 1.3, clamped.
	if e := computeEffectiveness(best); e != 1.0 {
		t.Errorf("Best-case effectiveness = %v, want 1.0 (clamped)", e)
	}

	worst := interactionAnalysis{
		ResponseQuality:  "low",
		EngagementLevel:  "low",
		CooperationLevel: "low",
		ClarityLevel:     "unclear",
	}
	if e := computeEffectiveness(worst); e != 0.5 {
		t.Errorf("Worst-case effectiveness = %v, want base 0.5", e)
	}

	medium := interactionAnalysis{
		ResponseQuality:  "medium",
		EngagementLevel:  "medium",
		CooperationLevel: "medium",
		ClarityLevel:     "clear",
	}
	want := 0.5 + 0.1 + 0.1 + 0.1 + 0.1
	if e := computeEffectiveness(medium); e != want {
		t.Errorf("Medium effectiveness = %v, want %v", e, want)
	}
}

func TestBlendBucket(t *testing.T) {
	buckets := []string{"low", "medium", "high"}

	// 0.7*low(1) + 0.3*high(3) = 1.6, nearest is medium(2)? 1.6 is
	// closer to 2 than to 1 by 0.4 vs 0.6.
	if got := blendBucket(engagementOrdinal, "low", "high", buckets); got != "medium" {
		t.Errorf("blend(low, high) = %s, want medium", got)
	}

	// 0.7*high(3) + 0.3*high(3) = 3: stays high.
	if got := blendBucket(engagementOrdinal, "high", "high", buckets); got != "high" {
		t.Errorf("blend(high, high) = %s, want high", got)
	}

	// 0.7*medium(2) + 0.3*low(1) = 1.7: rounds back to medium.
	if got := blendBucket(engagementOrdinal, "medium", "low", buckets); got != "medium" {
		t.Errorf("blend(medium, low) = %s, want medium", got)
	}

	// Unknown observation keeps the old bucket.
	if got := blendBucket(engagementOrdinal, "medium", "", buckets); got != "medium" {
		t.Errorf("blend(medium, unknown) = %s, want medium", got)
	}
}

func TestLearn_FallbackUpdatesRecords(t *testing.T) {
	l := testLearner(failingLLM())
	learning := types.NewLearningRecord()
	reflection := types.NewReflectionRecord()
	plan := &types.ActionPlan{Action: "ask_about_budget", Confidence: 0.7}

	message := strings.Repeat("We have a clear plan and a willing team. ", 5)
	l.Learn(context.Background(), message, plan, &types.ExtractedInfo{Confidence: 0.8}, learning, reflection)

	if len(learning.InteractionHistory) != 1 {
		t.Fatalf("Expected one interaction appended, got %d", len(learning.InteractionHistory))
	}
	in := learning.InteractionHistory[0]
	if in.Action != "ask_about_budget" {
		t.Errorf("action = %s", in.Action)
	}
	if in.Confidence != 0.8 {
		t.Errorf("confidence should come from the extraction, got %v", in.Confidence)
	}
	if in.Effectiveness <= 0.5 {
		t.Errorf("Expected a positive effectiveness for a detailed cooperative message, got %v", in.Effectiveness)
	}

	stat, ok := learning.QuestionEffectiveness["ask_about_budget"]
	if !ok || stat.TotalInteractions != 1 {
		t.Errorf("Expected effectiveness rolled into the action stat, got %+v", stat)
	}
	if stat.AverageEffectiveness != in.Effectiveness {
		t.Errorf("Running mean wrong: %v vs %v", stat.AverageEffectiveness, in.Effectiveness)
	}

	if len(reflection.AnalysisHistory) != 1 || len(reflection.DecisionLog) != 1 {
		t.Errorf("Expected one reflection entry in each log, got %d/%d",
			len(reflection.AnalysisHistory), len(reflection.DecisionLog))
	}
	if reflection.LastReflection.IsZero() {
		t.Error("LastReflection must be set")
	}
}

func TestLearn_QuestionStyleReplacedByLatest(t *testing.T) {
	l := testLearner(failingLLM())
	learning := types.NewLearningRecord()
	learning.UserPatterns.PreferredQuestionStyle = "detailed"

	l.Learn(context.Background(), "why does the budget matter at this stage?", nil, nil, learning, types.NewReflectionRecord())

	if learning.UserPatterns.PreferredQuestionStyle != "exploratory" {
		t.Errorf("Expected style replaced by latest observation, got %s", learning.UserPatterns.PreferredQuestionStyle)
	}
}

func TestLearn_EffectivenessRunningMean(t *testing.T) {
	learning := types.NewLearningRecord()
	learning.RecordEffectiveness("ask_about_scope", 0.4)
	learning.RecordEffectiveness("ask_about_scope", 0.8)

	stat := learning.QuestionEffectiveness["ask_about_scope"]
	if stat.TotalInteractions != 2 {
		t.Errorf("TotalInteractions = %d", stat.TotalInteractions)
	}
	if diff := stat.AverageEffectiveness - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AverageEffectiveness = %v, want 0.6", stat.AverageEffectiveness)
	}
}

func TestLearn_HistoryCap(t *testing.T) {
	l := testLearner(failingLLM())
	learning := types.NewLearningRecord()
	reflection := types.NewReflectionRecord()

	for i := 0; i < types.LearningHistoryCap+15; i++ {
		l.Learn(context.Background(), "a medium length reply about the project", nil, nil, learning, reflection)
	}
	if len(learning.InteractionHistory) != types.LearningHistoryCap {
		t.Errorf("Expected history capped at %d, got %d", types.LearningHistoryCap, len(learning.InteractionHistory))
	}
	if len(reflection.AnalysisHistory) != types.ReflectionHistoryCap {
		t.Errorf("Expected reflection capped at %d, got %d", types.ReflectionHistoryCap, len(reflection.AnalysisHistory))
	}
}
