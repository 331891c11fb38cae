package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/types"
)

// Learner is the detached learning stage. It runs after the reply has
// already gone back to the user, so everything here is best effort.
type Learner struct {
	client llm.Client
	cfg    config.LLMConfig
}

// NewLearner creates the learning stage.
func NewLearner(client llm.Client, cfg config.LLMConfig) *Learner {
	return &Learner{client: client, cfg: cfg}
}

// interactionAnalysis is the eight-axis read of one completed turn.
type interactionAnalysis struct {
	ResponseQuality       string `json:"responseQuality"`
	EngagementLevel       string `json:"engagementLevel"`
	CommunicationStyle    string `json:"communicationStyle"`
	PreferredQuestionType string `json:"preferredQuestionType"`
	ResponseTime          string `json:"responseTime"`
	InformationDensity    string `json:"informationDensity"`
	ClarityLevel          string `json:"clarityLevel"`
	CooperationLevel      string `json:"cooperationLevel"`
}

// learningInsights is the free-text second call's shape.
type learningInsights struct {
	UserProfile            string   `json:"userProfile"`
	ImprovementSuggestions []string `json:"improvementSuggestions"`
}

// Learn classifies the completed interaction, folds it into the user's
// learning record, and appends advisory notes to the reflection record.
// Both records are mutated in place for the caller to persist.
func (l *Learner) Learn(ctx context.Context, userMessage string, plan *types.ActionPlan, extracted *types.ExtractedInfo, learning *types.LearningRecord, reflection *types.ReflectionRecord) {
	timer := logging.StartTimer("learning", "learn")
	defer timer.Stop()

	analysis := l.classifyInteraction(ctx, userMessage, plan)

	updatePatterns(learning, analysis)

	effectiveness := computeEffectiveness(analysis)
	action := "unknown"
	confidence := 0.0
	if plan != nil {
		action = plan.Action
		confidence = plan.Confidence
	}
	if extracted != nil {
		confidence = extracted.Confidence
	}
	learning.AppendInteraction(types.Interaction{
		Timestamp:       time.Now().UTC(),
		Action:          action,
		Confidence:      confidence,
		ResponseQuality: analysis.ResponseQuality,
		EngagementLevel: analysis.EngagementLevel,
		Effectiveness:   effectiveness,
	}, types.LearningHistoryCap)
	learning.RecordEffectiveness(action, effectiveness)

	insights := l.generateInsights(ctx, userMessage, analysis, learning)
	now := time.Now().UTC()
	reflection.AppendAnalysis(types.ReflectionEntry{
		Timestamp: now,
		Note: fmt.Sprintf("quality=%s engagement=%s style=%s effectiveness=%.2f",
			analysis.ResponseQuality, analysis.EngagementLevel, analysis.CommunicationStyle, effectiveness),
	})
	reflection.AppendDecision(types.ReflectionEntry{
		Timestamp: now,
		Note:      fmt.Sprintf("action=%s profile=%s", action, insights.UserProfile),
	})
	if len(insights.ImprovementSuggestions) > 0 {
		reflection.ImprovementSuggestions = insights.ImprovementSuggestions
	}
	reflection.LastReflection = now

	logging.LearningDebug("action=%s effectiveness=%.2f quality=%s engagement=%s",
		action, effectiveness, analysis.ResponseQuality, analysis.EngagementLevel)
}

func (l *Learner) classifyInteraction(ctx context.Context, userMessage string, plan *types.ActionPlan) interactionAnalysis {
	stage := l.cfg.StageFor(config.StageLearning)
	var analysis interactionAnalysis
	err := llm.CompleteJSON(ctx, l.client, llm.Request{
		SystemPrompt: interactionSystemPrompt,
		UserPrompt:   buildInteractionPrompt(userMessage, plan),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &analysis)
	if err != nil || analysis.ResponseQuality == "" {
		logging.Learning("interaction classification failed, using heuristic fallback: %v", err)
		return FallbackInteractionAnalysis(userMessage)
	}
	return analysis
}

// FallbackInteractionAnalysis derives the eight axes from message
// length and punctuation alone.
func FallbackInteractionAnalysis(message string) interactionAnalysis {
	trimmed := strings.TrimSpace(message)
	n := len(trimmed)
	hasQuestion := strings.Contains(trimmed, "?")

	analysis := interactionAnalysis{
		ResponseTime: "avg_1_hour",
	}

	switch {
	case n > 150:
		analysis.ResponseQuality = "high"
	case n > 50:
		analysis.ResponseQuality = "medium"
	default:
		analysis.ResponseQuality = "low"
	}

	switch {
	case n > 100:
		analysis.EngagementLevel = "high"
	case n > 20:
		analysis.EngagementLevel = "medium"
	default:
		analysis.EngagementLevel = "low"
	}

	switch {
	case n > 150:
		analysis.CommunicationStyle = "detailed"
	case n < 50:
		analysis.CommunicationStyle = "concise"
	default:
		analysis.CommunicationStyle = "balanced"
	}

	if hasQuestion {
		analysis.PreferredQuestionType = "exploratory"
	} else {
		analysis.PreferredQuestionType = "direct"
	}

	switch {
	case n > 150:
		analysis.InformationDensity = "high"
	case n > 50:
		analysis.InformationDensity = "medium"
	default:
		analysis.InformationDensity = "low"
	}

	if n > 20 {
		analysis.ClarityLevel = "clear"
	} else {
		analysis.ClarityLevel = "unclear"
	}

	if n > 50 {
		analysis.CooperationLevel = "high"
	} else {
		analysis.CooperationLevel = "medium"
	}

	return analysis
}

// Ordinal scales for the blended pattern updates.
var (
	engagementOrdinal   = map[string]float64{"low": 1, "medium": 2, "high": 3}
	responseTimeOrdinal = map[string]float64{"avg_30_minutes": 1, "avg_1_hour": 2, "avg_2_hours": 3}
)

// updatePatterns blends the new observation into the user's patterns:
// 70/30 exponential-style blends for response time and engagement,
// straight replacement for question style and communication style.
func updatePatterns(learning *types.LearningRecord, analysis interactionAnalysis) {
	p := &learning.UserPatterns

	p.ResponseTime = blendBucket(responseTimeOrdinal, p.ResponseTime, analysis.ResponseTime,
		[]string{"avg_30_minutes", "avg_1_hour", "avg_2_hours"})
	p.EngagementLevel = blendBucket(engagementOrdinal, p.EngagementLevel, analysis.EngagementLevel,
		[]string{"low", "medium", "high"})

	if analysis.PreferredQuestionType != "" {
		p.PreferredQuestionStyle = analysis.PreferredQuestionType
	}
	if analysis.CommunicationStyle != "" {
		p.CommunicationStyle = analysis.CommunicationStyle
	}
}

// blendBucket maps both buckets onto the ordinal scale, blends
// 0.7×old + 0.3×new, and rounds back to the nearest bucket.
func blendBucket(scale map[string]float64, old, observed string, buckets []string) string {
	oldV, okOld := scale[old]
	newV, okNew := scale[observed]
	if !okNew {
		return old
	}
	if !okOld {
		return observed
	}
	blended := 0.7*oldV + 0.3*newV
	best := buckets[0]
	bestDist := -1.0
	for _, b := range buckets {
		d := blended - scale[b]
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = b
		}
	}
	return best
}

// computeEffectiveness scores the interaction: base 0.5 plus bonuses
// for quality, engagement, cooperation, and clarity, clamped to [0,1].
func computeEffectiveness(analysis interactionAnalysis) float64 {
	effectiveness := 0.5
	switch analysis.ResponseQuality {
	case "high":
		effectiveness += 0.3
	case "medium":
		effectiveness += 0.1
	}
	switch analysis.EngagementLevel {
	case "high":
		effectiveness += 0.2
	case "medium":
		effectiveness += 0.1
	}
	switch analysis.CooperationLevel {
	case "high":
		effectiveness += 0.2
	case "medium":
		effectiveness += 0.1
	}
	if analysis.ClarityLevel == "clear" {
		effectiveness += 0.1
	}
	return clamp01(effectiveness)
}

func (l *Learner) generateInsights(ctx context.Context, userMessage string, analysis interactionAnalysis, learning *types.LearningRecord) learningInsights {
	stage := l.cfg.StageFor(config.StageLearning)
	var insights learningInsights
	err := llm.CompleteJSON(ctx, l.client, llm.Request{
		SystemPrompt: insightsSystemPrompt,
		UserPrompt:   buildInsightsPrompt(userMessage, analysis, learning),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &insights)
	if err != nil || insights.UserProfile == "" {
		return learningInsights{
			UserProfile: fmt.Sprintf("%s communicator with %s engagement",
				analysis.CommunicationStyle, analysis.EngagementLevel),
		}
	}
	return insights
}
