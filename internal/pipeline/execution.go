package pipeline

import (
	"context"
	"regexp"
	"strings"

	"groundwork/internal/classifier"
	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/types"
)

// ApologyReply is the fixed reply used when the slow-path LLM response
// cannot be parsed.
const ApologyReply = "I understand. Let me help you with that. Could you tell me more about your project?"

// budgetAmountPattern extracts the numeric amount from a budget message.
var budgetAmountPattern = regexp.MustCompile(`\$?(\d{1,3}(,\d{3})*(\.\d{2})?)`)

// IntentModel is the classifier surface the executor needs.
type IntentModel interface {
	Classify(text string) classifier.Classification
}

// Executor is the execution stage: it interprets the user's message,
// merges extracted fields into the project record, and produces the
// reply text. Cheap classifier path first, LLM path as fallback.
type Executor struct {
	client    llm.Client
	intents   IntentModel
	cfg       config.LLMConfig
	threshold float64
}

// NewExecutor creates the execution stage. threshold is the minimum
// classifier confidence for the fast path.
func NewExecutor(client llm.Client, intents IntentModel, cfg config.LLMConfig, threshold float64) *Executor {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &Executor{client: client, intents: intents, cfg: cfg, threshold: threshold}
}

// ExecutionResult is the stage output: the reply, what was extracted,
// and the continuation decision.
type ExecutionResult struct {
	Message        string
	Extracted      *types.ExtractedInfo
	ShouldContinue bool
	FastPath       bool
}

// Execute interprets the user message and merges any extracted fields
// into the project record in place. Never returns an error; total
// failure produces a generic reply and leaves the record untouched.
func (e *Executor) Execute(ctx context.Context, userMessage string, plan *types.ActionPlan, project *types.ProjectRecord) *ExecutionResult {
	timer := logging.StartTimer("execution", "execute")
	defer timer.Stop()

	result := e.interpret(ctx, userMessage, plan, project)

	if project != nil {
		project.ApplyExtracted(result.Extracted)
	}
	result.ShouldContinue = shouldContinueConversation(project, result.Extracted)

	logging.ExecutionDebug("fast_path=%v confidence=%.2f continue=%v",
		result.FastPath, result.Extracted.Confidence, result.ShouldContinue)
	return result
}

func (e *Executor) interpret(ctx context.Context, userMessage string, plan *types.ActionPlan, project *types.ProjectRecord) *ExecutionResult {
	if e.intents != nil {
		c := e.intents.Classify(userMessage)
		if c.Confidence >= e.threshold && c.Answer != "" {
			logging.Execution("fast path: intent=%s confidence=%.2f", c.Intent, c.Confidence)
			return &ExecutionResult{
				Message:   c.Answer,
				Extracted: extractFromIntent(c, userMessage),
				FastPath:  true,
			}
		}
		logging.ExecutionDebug("fast path declined: intent=%s confidence=%.2f answer=%v",
			c.Intent, c.Confidence, c.Answer != "")
	}
	return e.slowPath(ctx, userMessage, plan, project)
}

// extractFromIntent maps a confident intent label to a partial
// ExtractedInfo via the fixed intent-to-fields table.
func extractFromIntent(c classifier.Classification, userMessage string) *types.ExtractedInfo {
	info := &types.ExtractedInfo{
		Confidence:        c.Confidence,
		ExtractionQuality: "high",
	}
	switch c.Intent {
	case classifier.IntentScopeDefine:
		info.Fields.Scope = userMessage
	case classifier.IntentTimelineSet:
		info.Fields.Timeline = userMessage
	case classifier.IntentBudgetSet:
		if m := budgetAmountPattern.FindStringSubmatch(userMessage); m != nil {
			info.Fields.Budget = m[1]
		}
	case classifier.IntentDeliverablesDefine:
		info.Fields.Deliverables = []string{userMessage}
	case classifier.IntentDependenciesDefine:
		info.Fields.Dependencies = []string{userMessage}
	case classifier.IntentResponsePositive:
		yes := true
		info.Confirmation = &yes
	case classifier.IntentResponseNegative:
		no := false
		info.Confirmation = &no
	default:
		info.AdditionalInfo = userMessage
	}
	return info
}

// verbosity is the brevity instruction derived from the user's tone.
type verbosity struct {
	Tone       string
	WordBudget int
}

// estimateVerbosity reads the user's message style and picks a matching
// reply budget. Terse users get terse answers.
func estimateVerbosity(message string) verbosity {
	trimmed := strings.TrimSpace(message)
	exclamations := strings.Count(trimmed, "!")
	sentences := strings.Count(trimmed, ".") + strings.Count(trimmed, "?") + exclamations

	switch {
	case len(trimmed) < 30 && sentences <= 1:
		return verbosity{Tone: "terse", WordBudget: 50}
	case len(trimmed) > 120 || sentences >= 3 || exclamations >= 2:
		return verbosity{Tone: "detailed", WordBudget: 300}
	default:
		return verbosity{Tone: "normal", WordBudget: 150}
	}
}

// slowResponse is the strict JSON shape expected from the combined
// extract-and-reply call.
type slowResponse struct {
	ExtractedInfo   types.ExtractedInfo `json:"extractedInfo"`
	ResponseMessage string              `json:"responseMessage"`
}

func (e *Executor) slowPath(ctx context.Context, userMessage string, plan *types.ActionPlan, project *types.ProjectRecord) *ExecutionResult {
	v := estimateVerbosity(userMessage)
	stage := e.cfg.StageFor(config.StageExecution)

	var resp slowResponse
	err := llm.CompleteJSON(ctx, e.client, llm.Request{
		SystemPrompt: buildExecutionSystemPrompt(v),
		UserPrompt:   buildExecutionPrompt(userMessage, plan, project),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &resp)
	if err != nil || strings.TrimSpace(resp.ResponseMessage) == "" {
		logging.Execution("slow path failed, using apology fallback: %v", err)
		return &ExecutionResult{
			Message:   ApologyReply,
			Extracted: &types.ExtractedInfo{Confidence: 0.3, ExtractionQuality: "low"},
		}
	}

	resp.ExtractedInfo.Confidence = clamp01(resp.ExtractedInfo.Confidence)
	return &ExecutionResult{
		Message:   strings.TrimSpace(resp.ResponseMessage),
		Extracted: &resp.ExtractedInfo,
	}
}

// shouldContinueConversation is the continuation hook. Every branch
// currently returns true; the named decision point exists so a future
// gating rule has somewhere to live.
func shouldContinueConversation(project *types.ProjectRecord, extracted *types.ExtractedInfo) bool {
	if project != nil &&
		len(project.Scope) > 10 && len(project.Timeline) > 2 && len(project.Budget) > 0 {
		return true
	}
	if project != nil && project.HasField(types.FieldScope) {
		return true
	}
	if extracted != nil && extracted.Confidence > 0.6 {
		return true
	}
	return true
}
