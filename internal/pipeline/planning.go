package pipeline

import (
	"context"
	"strings"
	"time"

	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/types"
)

// Planner is the action-planning stage. It picks the single next
// conversational move and lightly updates the user's learning record.
type Planner struct {
	client llm.Client
	cfg    config.LLMConfig
	window int
}

// NewPlanner creates the action-planning stage.
func NewPlanner(client llm.Client, cfg config.LLMConfig, historyWindow int) *Planner {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Planner{client: client, cfg: cfg, window: historyWindow}
}

// conversationContext is the lightweight, LLM-free read of where the
// conversation stands.
type conversationContext struct {
	Stage           string
	UserEngagement  string
	ResponsePattern string
}

// Plan chooses the next action. The given learning record is mutated
// (interaction appended, patterns recomputed) and must be persisted by
// the caller. Failures silently return the fallback plan.
func (p *Planner) Plan(ctx context.Context, gaps *types.GapRecord, knowledge *types.KnowledgeRecord, history *types.ChatHistory, learning *types.LearningRecord) *types.ActionPlan {
	timer := logging.StartTimer("planning", "plan")
	defer timer.Stop()

	cctx := deriveConversationContext(history)

	plan := p.requestPlan(ctx, gaps, knowledge, cctx, learning)
	if plan == nil {
		plan = FallbackPlan(gaps, learning, cctx)
	}

	recordPlanningInteraction(learning, plan)

	logging.PlanningDebug("action=%s timing=%s confidence=%.2f stage=%s",
		plan.Action, plan.Timing, plan.Confidence, cctx.Stage)
	return plan
}

func (p *Planner) requestPlan(ctx context.Context, gaps *types.GapRecord, knowledge *types.KnowledgeRecord, cctx conversationContext, learning *types.LearningRecord) *types.ActionPlan {
	stage := p.cfg.StageFor(config.StagePlanning)
	var plan types.ActionPlan
	err := llm.CompleteJSON(ctx, p.client, llm.Request{
		SystemPrompt: planningSystemPrompt,
		UserPrompt:   buildPlanningPrompt(gaps, knowledge, cctx, learning),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &plan)
	if err != nil {
		return nil
	}
	// A plan without both an action and a question is unusable.
	if plan.Action == "" || plan.Question == "" {
		return nil
	}
	if plan.Timing != "delayed" {
		plan.Timing = "immediate"
	}
	plan.Confidence = clamp01(plan.Confidence)
	return &plan
}

// deriveConversationContext computes stage, engagement, and response
// pattern from the message history alone.
func deriveConversationContext(history *types.ChatHistory) conversationContext {
	cctx := conversationContext{
		Stage:           "initial",
		UserEngagement:  "medium",
		ResponsePattern: "balanced_statements",
	}
	if history == nil {
		return cctx
	}

	total := len(history.Turns)
	switch {
	case total < 5:
		cctx.Stage = "initial"
	case total < 10:
		cctx.Stage = "exploration"
	case total < 20:
		cctx.Stage = "planning"
	default:
		cctx.Stage = "detailed"
	}

	recent := types.UserTurns(history.Recent(10))
	if len(recent) == 0 {
		return cctx
	}

	var totalLen, detailed, brief, questions int
	for _, t := range recent {
		n := len(t.Message)
		totalLen += n
		if n > 100 {
			detailed++
		}
		if n < 30 {
			brief++
		}
		if strings.Contains(t.Message, "?") {
			questions++
		}
	}

	avg := totalLen / len(recent)
	switch {
	case avg > 100:
		cctx.UserEngagement = "high"
	case avg < 30:
		cctx.UserEngagement = "low"
	default:
		cctx.UserEngagement = "medium"
	}

	length := "balanced"
	if detailed > brief {
		length = "detailed"
	} else if brief > detailed {
		length = "brief"
	}
	mode := "statements"
	if questions*2 > len(recent) {
		mode = "questions"
	}
	cctx.ResponsePattern = length + "_" + mode
	return cctx
}

// fallbackQuestions is the fixed 5-field by 3-style question table.
var fallbackQuestions = map[string]map[string]string{
	types.FieldScope: {
		"direct":      "What is the scope of your project?",
		"exploratory": "Can you tell me more about what you're hoping to build?",
		"detailed":    "Could you walk me through the full scope of the project, including what is in and out?",
	},
	types.FieldTimeline: {
		"direct":      "What is your timeline for this project?",
		"exploratory": "How are you thinking about timing for this project?",
		"detailed":    "Could you describe your ideal timeline, including any fixed deadlines or milestones?",
	},
	types.FieldBudget: {
		"direct":      "What is your budget for this project?",
		"exploratory": "What's the budget situation for this project?",
		"detailed":    "Could you break down the budget you have in mind, including how much flexibility there is?",
	},
	types.FieldDeliverables: {
		"direct":      "What deliverables do you expect from this project?",
		"exploratory": "What would you like to end up with when this project is done?",
		"detailed":    "Could you list the specific deliverables you expect, and what finished looks like for each?",
	},
	types.FieldDependencies: {
		"direct":      "What does this project depend on?",
		"exploratory": "Is there anything this project is waiting on or connected to?",
		"detailed":    "Could you describe any dependencies, approvals, or external factors this project relies on?",
	},
}

// FallbackPlan is the deterministic plan used when the LLM path is
// unavailable: top gap, the user's preferred question style against the
// canned table, timing from engagement, fixed confidence.
func FallbackPlan(gaps *types.GapRecord, learning *types.LearningRecord, cctx conversationContext) *types.ActionPlan {
	field := types.FieldScope
	if gaps != nil && len(gaps.CriticalGaps) > 0 {
		field = gaps.CriticalGaps[0]
	}
	if _, ok := fallbackQuestions[field]; !ok {
		field = types.FieldScope
	}

	style := "direct"
	if learning != nil && learning.UserPatterns.PreferredQuestionStyle != "" {
		style = learning.UserPatterns.PreferredQuestionStyle
	}
	question, ok := fallbackQuestions[field][style]
	if !ok {
		question = fallbackQuestions[field]["direct"]
	}

	timing := "immediate"
	if cctx.UserEngagement == "low" {
		timing = "delayed"
	}

	return &types.ActionPlan{
		Action:     "ask_about_" + field,
		Question:   question,
		Reasoning:  fieldLabel(field) + " is the top open gap",
		Timing:     timing,
		Confidence: 0.7,
	}
}

// recordPlanningInteraction appends the plan to the learning record and
// recomputes the engagement and response-time patterns from the last
// ten entries. Runs on every plan, fallback or not.
func recordPlanningInteraction(learning *types.LearningRecord, plan *types.ActionPlan) {
	if learning == nil {
		return
	}

	learning.AppendInteraction(types.Interaction{
		Timestamp:  time.Now().UTC(),
		Action:     plan.Action,
		Confidence: plan.Confidence,
		Reasoning:  plan.Reasoning,
	}, types.PlanningHistoryCap)

	recent := learning.InteractionHistory
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	var confidenceSum float64
	for _, in := range recent {
		confidenceSum += in.Confidence
	}
	meanConfidence := confidenceSum / float64(len(recent))
	switch {
	case meanConfidence > 0.8:
		learning.UserPatterns.EngagementLevel = "high"
	case meanConfidence < 0.5:
		learning.UserPatterns.EngagementLevel = "low"
	default:
		learning.UserPatterns.EngagementLevel = "medium"
	}

	if len(recent) >= 2 {
		var deltaSum time.Duration
		for i := 1; i < len(recent); i++ {
			deltaSum += recent[i].Timestamp.Sub(recent[i-1].Timestamp)
		}
		meanDelta := deltaSum / time.Duration(len(recent)-1)
		switch {
		case meanDelta < time.Hour:
			learning.UserPatterns.ResponseTime = "avg_30_minutes"
		case meanDelta < 2*time.Hour:
			learning.UserPatterns.ResponseTime = "avg_1_hour"
		default:
			learning.UserPatterns.ResponseTime = "avg_2_hours"
		}
	}
}
