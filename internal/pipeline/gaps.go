package pipeline

import (
	"context"
	"fmt"

	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/types"
)

// Detector is the gap-detection stage. It rewrites the gap record each
// turn from the project record and the fresh knowledge record.
type Detector struct {
	client llm.Client
	cfg    config.LLMConfig
}

// NewDetector creates the gap-detection stage.
func NewDetector(client llm.Client, cfg config.LLMConfig) *Detector {
	return &Detector{client: client, cfg: cfg}
}

// gapsResponse is the strict JSON shape expected from the LLM.
type gapsResponse struct {
	Gaps             []types.GapDetail `json:"gaps"`
	PrioritizedOrder []string          `json:"prioritizedOrder"`
	NextAction       types.NextAction  `json:"nextAction"`
}

// Detect assesses the project's missing fields. On any LLM or parse
// failure it returns the deterministic rule-table fallback; it never
// fails the pipeline.
func (d *Detector) Detect(ctx context.Context, project *types.ProjectRecord, knowledge *types.KnowledgeRecord) *types.GapRecord {
	timer := logging.StartTimer("gaps", "detect")
	defer timer.Stop()

	if project == nil {
		return conservativeGapRecord()
	}

	missing := project.MissingFields()
	if len(missing) == 0 {
		logging.GapsDebug("project=%s has no open gaps", project.ID)
		return &types.GapRecord{
			CriticalGaps:  []string{},
			PriorityScore: 0,
			NextAction: types.NextAction{
				Action:    "confirm_details",
				Question:  "Everything essential is captured. Would you like to review the details together?",
				Reasoning: "all tracked fields are populated",
			},
			Todos: []types.Todo{},
		}
	}

	resp, err := d.assessGaps(ctx, project, knowledge, missing)
	if err != nil {
		logging.Gaps("gap assessment failed, using rule-table fallback: %v", err)
		return FallbackGapRecord(missing)
	}

	record := &types.GapRecord{
		CriticalGaps:  resp.PrioritizedOrder,
		Details:       resp.Gaps,
		PriorityScore: calculatePriorityScore(resp.PrioritizedOrder),
		NextAction:    resp.NextAction,
		Reasoning:     resp.NextAction.Reasoning,
	}
	record.Todos = buildTodos(record.CriticalGaps, resp.Gaps, record.NextAction)

	logging.GapsDebug("project=%s gaps=%v priority=%.2f next=%s",
		project.ID, record.CriticalGaps, record.PriorityScore, record.NextAction.Action)
	return record
}

func (d *Detector) assessGaps(ctx context.Context, project *types.ProjectRecord, knowledge *types.KnowledgeRecord, missing []string) (*gapsResponse, error) {
	stage := d.cfg.StageFor(config.StageGaps)
	var resp gapsResponse
	err := llm.CompleteJSON(ctx, d.client, llm.Request{
		SystemPrompt: gapsSystemPrompt,
		UserPrompt:   buildGapsPrompt(project, knowledge, missing),
		Model:        stage.Model,
		MaxTokens:    stage.MaxTokens,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := validateGapsResponse(&resp, missing); err != nil {
		return nil, err
	}
	return &resp, nil
}

// validateGapsResponse enforces the strict shape: every missing field
// assessed and ordered, a usable next action.
func validateGapsResponse(resp *gapsResponse, missing []string) error {
	if resp.NextAction.Action == "" || resp.NextAction.Question == "" {
		return fmt.Errorf("next action incomplete")
	}
	if len(resp.PrioritizedOrder) != len(missing) {
		return fmt.Errorf("prioritized order covers %d of %d gaps", len(resp.PrioritizedOrder), len(missing))
	}
	missingSet := map[string]bool{}
	for _, f := range missing {
		missingSet[f] = true
	}
	for _, f := range resp.PrioritizedOrder {
		if !missingSet[f] {
			return fmt.Errorf("prioritized order names unknown field %q", f)
		}
	}
	if len(resp.Gaps) == 0 {
		return fmt.Errorf("no gap details")
	}
	return nil
}

// FallbackGapRecord is the deterministic rule-table assessment used
// whenever the LLM path is unavailable. Ordering is the canonical field
// declaration order filtered to the present gaps; the next action is
// always the top gap's canned question.
func FallbackGapRecord(missing []string) *types.GapRecord {
	if len(missing) == 0 {
		missing = append([]string(nil), types.AllFields...)
	}

	details := make([]types.GapDetail, 0, len(missing))
	ordered := make([]string, 0, len(missing))
	for _, field := range types.AllFields {
		if !contains(missing, field) {
			continue
		}
		ordered = append(ordered, field)
		details = append(details, fallbackGapDetail(field))
	}

	top := ordered[0]
	next := types.NextAction{
		Action:    "ask_about_" + top,
		Question:  gapQuestions[top],
		Reasoning: fmt.Sprintf("%s is the most critical open gap", fieldLabel(top)),
	}

	record := &types.GapRecord{
		CriticalGaps:  ordered,
		Details:       details,
		PriorityScore: calculatePriorityScore(ordered),
		NextAction:    next,
		Reasoning:     next.Reasoning,
	}
	record.Todos = buildTodos(ordered, details, next)
	return record
}

// conservativeGapRecord assumes everything is missing. Used when the
// stage fails before it can even inspect the project.
func conservativeGapRecord() *types.GapRecord {
	record := FallbackGapRecord(append([]string(nil), types.AllFields...))
	record.PriorityScore = 1.0
	return record
}

func fallbackGapDetail(field string) types.GapDetail {
	switch field {
	case types.FieldScope:
		return types.GapDetail{
			Field:       field,
			Criticality: "critical",
			Impact:      "blocks_everything",
			Reasoning:   "nothing can be planned without scope",
		}
	case types.FieldTimeline, types.FieldBudget:
		return types.GapDetail{
			Field:        field,
			Criticality:  "high",
			Impact:       "blocks_planning",
			Dependencies: []string{types.FieldScope},
			Reasoning:    fieldLabel(field) + " is needed before planning can firm up",
		}
	default:
		return types.GapDetail{
			Field:        field,
			Criticality:  "medium",
			Impact:       "blocks_execution",
			Dependencies: []string{types.FieldScope, types.FieldTimeline},
			Reasoning:    fieldLabel(field) + " is needed before work can start",
		}
	}
}

// criticalityScores weights gaps by severity. calculatePriorityScore
// indexes this with the literal "critical" key for every gap, so the
// score depends only on gap count and position. Known quirk, kept
// deliberately; see DESIGN.md.
var criticalityScores = map[string]float64{
	"critical": 1.0,
	"high":     0.8,
	"medium":   0.5,
	"low":      0.2,
}

func calculatePriorityScore(ordered []string) float64 {
	score := 0.0
	for i := range ordered {
		positionWeight := 1.0 - 0.1*float64(i)
		if positionWeight < 0 {
			positionWeight = 0
		}
		score += criticalityScores["critical"] * positionWeight
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// gapQuestions are the canned per-field questions used by the fallback
// next action.
var gapQuestions = map[string]string{
	types.FieldScope:        "Could you describe what you want this project to accomplish?",
	types.FieldTimeline:     "When would you like this project to be completed?",
	types.FieldBudget:       "What budget do you have in mind for this project?",
	types.FieldDeliverables: "What specific deliverables are you expecting from this project?",
	types.FieldDependencies: "Is this project waiting on anything else before it can move forward?",
}

// todoTitles are the fixed human titles, one per field.
var todoTitles = map[string]string{
	types.FieldScope:        "Define project scope",
	types.FieldTimeline:     "Establish timeline",
	types.FieldBudget:       "Set budget",
	types.FieldDeliverables: "Specify deliverables",
	types.FieldDependencies: "Identify dependencies",
}

func buildTodos(ordered []string, details []types.GapDetail, next types.NextAction) []types.Todo {
	detailByField := map[string]types.GapDetail{}
	for _, d := range details {
		detailByField[d.Field] = d
	}

	todos := make([]types.Todo, 0, len(ordered))
	for _, field := range ordered {
		detail := detailByField[field]
		priority := detail.Criticality
		if priority == "" {
			priority = "medium"
		}
		action := "ask_about_" + field
		todos = append(todos, types.Todo{
			ID:       "todo_" + field,
			Title:    todoTitles[field],
			Reason:   detail.Reasoning,
			Priority: priority,
			Action:   action,
			IsNext:   next.Action == action,
		})
	}
	return todos
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
