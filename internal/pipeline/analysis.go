// Package pipeline implements the five-stage intake pipeline: self-analysis,
// gap detection, action planning, execution, and the detached learning pass,
// plus the orchestrator that runs them in order for each chat turn.
//
// Every stage degrades to a deterministic fallback when its LLM call fails
// or returns unusable JSON. Stage errors never abort a turn.
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

// Analyzer is the self-analysis stage. It rewrites the knowledge record
// each turn from the project record and recent conversation.
type Analyzer struct {
	client llm.Client
	cfg    config.LLMConfig
	window int
}

// NewAnalyzer creates the self-analysis stage.
func NewAnalyzer(client llm.Client, cfg config.LLMConfig, historyWindow int) *Analyzer {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Analyzer{client: client, cfg: cfg, window: historyWindow}
}

// Analyze computes completeness, confidence, known facts, and the
// conversational context read. Never returns an error to the caller;
// total failure yields a maximally uncertain record.
func (a *Analyzer) Analyze(ctx context.Context, project *types.ProjectRecord, history *types.ChatHistory, prior *types.KnowledgeRecord) *types.KnowledgeRecord {
	timer := logging.StartTimer("analysis", "analyze")
	defer timer.Stop()

	if project == nil {
		logging.Analysis("nil project record, returning maximally uncertain knowledge")
		return types.NewKnowledgeRecord()
	}

	completeness := project.Completeness()
	missing := project.MissingFields()

	cctx := a.classifyContext(ctx, project, history)
	confidence := deriveConfidence(project, completeness, cctx)

	knowledge := &types.KnowledgeRecord{
		Confidence:      confidence,
		Completeness:    completeness,
		KnownFacts:      buildKnownFacts(project),
		Uncertainties:   buildUncertainties(missing, cctx),
		MissingFields:   missing,
		ContextAnalysis: cctx,
	}

	// Analysis history survives the per-turn rewrite.
	if prior != nil {
		knowledge.AnalysisHistory = prior.AnalysisHistory
	}
	knowledge.AppendSnapshot(types.AnalysisSnapshot{
		Timestamp:    time.Now().UTC(),
		Completeness: completeness,
		Confidence:   confidence,
	})

	logging.AnalysisDebug("project=%s completeness=%.2f confidence=%.2f missing=%v",
		project.ID, completeness, confidence, missing)
	return knowledge
}

// classifyContext asks the LLM to read the conversation's tone. Any
// failure falls back to the neutral context.
func (a *Analyzer) classifyContext(ctx context.Context, project *types.ProjectRecord, history *types.ChatHistory) types.ContextAnalysis {
	var turns []types.ChatTurn
	if history != nil {
		turns = history.Recent(a.window)
	}

	stage := a.cfg.StageFor(config.StageAnalysis)
	var cctx types.ContextAnalysis
	err := llm.CompleteJSON(ctx, a.client, llm.Request{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   buildAnalysisPrompt(project, turns),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &cctx)
	if err != nil {
		logging.Analysis("context classification failed, using neutral default: %v", err)
		return types.NeutralContextAnalysis()
	}
	if cctx.Complexity == "" || cctx.UserEngagement == "" {
		logging.Analysis("context classification incomplete, using neutral default")
		return types.NeutralContextAnalysis()
	}
	if cctx.ProjectType == "" {
		cctx.ProjectType = "general"
	}
	if cctx.Urgency == "" {
		cctx.Urgency = "medium"
	}
	return cctx
}

// deriveConfidence is the fixed weighted sum over field presence,
// adjusted by context complexity and engagement, clamped to [0,1].
func deriveConfidence(project *types.ProjectRecord, completeness float64, cctx types.ContextAnalysis) float64 {
	confidence := 0.4 * completeness
	if len(strings.TrimSpace(project.Scope)) > 10 {
		confidence += 0.2
	}
	if project.HasField(types.FieldTimeline) {
		confidence += 0.2
	}
	if project.HasField(types.FieldBudget) {
		confidence += 0.1
	}
	if len(project.Deliverables) > 0 {
		confidence += 0.1
	}
	if cctx.Complexity == "high" {
		confidence *= 0.9
	}
	if cctx.UserEngagement == "high" {
		confidence += 0.05
	}
	return clamp01(confidence)
}

func buildKnownFacts(project *types.ProjectRecord) []string {
	facts := []string{}
	for _, field := range types.AllFields {
		if project.HasField(field) {
			facts = append(facts, fmt.Sprintf("%s: %s", fieldLabel(field), project.FieldValue(field)))
		}
	}
	return facts
}

func buildUncertainties(missing []string, cctx types.ContextAnalysis) []string {
	uncertainties := []string{}
	for _, field := range missing {
		uncertainties = append(uncertainties, fmt.Sprintf("%s has not been provided yet", fieldLabel(field)))
	}
	if cctx.Complexity == "high" {
		uncertainties = append(uncertainties, "project complexity is high, estimates may shift")
	}
	if cctx.Urgency == "high" {
		uncertainties = append(uncertainties, "urgency is high, timeline answers may be aspirational")
	}
	return uncertainties
}

func fieldLabel(field string) string {
	switch field {
	case types.FieldScope:
		return "Project scope"
	case types.FieldTimeline:
		return "Timeline"
	case types.FieldBudget:
		return "Budget"
	case types.FieldDeliverables:
		return "Deliverables"
	case types.FieldDependencies:
		return "Dependencies"
	}
	return field
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
