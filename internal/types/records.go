// Package types defines the persistent records and ephemeral values that flow
// through the intake pipeline. Every record has a defaults-when-absent
// constructor so a missing store key never produces a nil downstream.
package types

import (
	"strings"
	"time"
)

// Required project fields, in canonical priority order.
const (
	FieldScope        = "scope"
	FieldTimeline     = "timeline"
	FieldBudget       = "budget"
	FieldDeliverables = "deliverables"
	FieldDependencies = "dependencies"
)

// AllFields lists every tracked project field in declaration order.
// Gap fallback ordering and todo generation depend on this order.
var AllFields = []string{FieldScope, FieldTimeline, FieldBudget, FieldDeliverables, FieldDependencies}

// CoreFields are the fields that count toward completeness.
var CoreFields = []string{FieldScope, FieldTimeline, FieldBudget}

// Retention caps. Interaction history is capped tighter during planning than
// during the full learning update, matching the two call sites.
const (
	AnalysisHistoryCap   = 50
	PlanningHistoryCap   = 50
	LearningHistoryCap   = 100
	ReflectionHistoryCap = 100
	DecisionLogCap       = 100
)

// ProjectRecord is the canonical per-project record. Mutated only by the
// execution stage and explicit update operations.
type ProjectRecord struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	TemplateName  string         `json:"templateName,omitempty"`
	MaturityLevel string         `json:"maturityLevel,omitempty"`
	TemplateData  map[string]any `json:"templateData,omitempty"`
	Scope         string         `json:"scope,omitempty"`
	Timeline      string         `json:"timeline,omitempty"`
	Budget        string         `json:"budget,omitempty"`
	Deliverables  []string       `json:"deliverables,omitempty"`
	Dependencies  []string       `json:"dependencies,omitempty"`
	Status        string         `json:"status,omitempty"`
	EmailID       string         `json:"emailId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// NewProjectRecord returns an empty project record for the given id.
func NewProjectRecord(id string) *ProjectRecord {
	now := time.Now().UTC()
	return &ProjectRecord{
		ID:        id,
		Status:    "intake",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FieldValue returns the stored value for a named field. Array fields are
// joined for display.
func (p *ProjectRecord) FieldValue(field string) string {
	switch field {
	case FieldScope:
		return p.Scope
	case FieldTimeline:
		return p.Timeline
	case FieldBudget:
		return p.Budget
	case FieldDeliverables:
		return strings.Join(p.Deliverables, ", ")
	case FieldDependencies:
		return strings.Join(p.Dependencies, ", ")
	}
	return ""
}

// HasField reports whether a field is populated.
func (p *ProjectRecord) HasField(field string) bool {
	switch field {
	case FieldDeliverables:
		return len(p.Deliverables) > 0
	case FieldDependencies:
		return len(p.Dependencies) > 0
	default:
		return strings.TrimSpace(p.FieldValue(field)) != ""
	}
}

// MissingFields returns the tracked fields that are empty, in canonical order.
func (p *ProjectRecord) MissingFields() []string {
	missing := make([]string, 0, len(AllFields))
	for _, f := range AllFields {
		if !p.HasField(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Completeness is the fraction of the core fields that are populated.
func (p *ProjectRecord) Completeness() float64 {
	filled := 0
	for _, f := range CoreFields {
		if p.HasField(f) {
			filled++
		}
	}
	return float64(filled) / float64(len(CoreFields))
}

// ApplyExtracted merges extracted fields into the record. Scalar fields
// overwrite only when the new value is non-empty; array fields append without
// deduplication. UpdatedAt is always refreshed.
func (p *ProjectRecord) ApplyExtracted(info *ExtractedInfo) {
	if info != nil {
		if v := strings.TrimSpace(info.Fields.Scope); v != "" {
			p.Scope = v
		}
		if v := strings.TrimSpace(info.Fields.Timeline); v != "" {
			p.Timeline = v
		}
		if v := strings.TrimSpace(info.Fields.Budget); v != "" {
			p.Budget = v
		}
		p.Deliverables = append(p.Deliverables, info.Fields.Deliverables...)
		p.Dependencies = append(p.Dependencies, info.Fields.Dependencies...)
	}
	p.UpdatedAt = time.Now().UTC()
}

// ContextAnalysis is the LLM's read of conversational tone and complexity.
type ContextAnalysis struct {
	ProjectType        string   `json:"projectType"`
	Complexity         string   `json:"complexity"`
	Urgency            string   `json:"urgency"`
	UserEngagement     string   `json:"userEngagement"`
	KeyThemes          []string `json:"keyThemes,omitempty"`
	ProgressIndicators []string `json:"progressIndicators,omitempty"`
}

// NeutralContextAnalysis is the fallback when the LLM reply is unusable.
func NeutralContextAnalysis() ContextAnalysis {
	return ContextAnalysis{
		ProjectType:    "general",
		Complexity:     "medium",
		Urgency:        "medium",
		UserEngagement: "medium",
	}
}

// AnalysisSnapshot is one entry in the knowledge analysis history.
type AnalysisSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	Completeness float64   `json:"completeness"`
	Confidence   float64   `json:"confidence"`
}

// KnowledgeRecord holds the self-analysis output. Rewritten each turn.
type KnowledgeRecord struct {
	Confidence      float64            `json:"confidence"`
	Completeness    float64            `json:"completeness"`
	KnownFacts      []string           `json:"knownFacts"`
	Uncertainties   []string           `json:"uncertainties"`
	MissingFields   []string           `json:"missingFields"`
	AnalysisHistory []AnalysisSnapshot `json:"analysisHistory"`
	ContextAnalysis ContextAnalysis    `json:"contextAnalysis"`
}

// NewKnowledgeRecord returns a maximally uncertain knowledge record.
func NewKnowledgeRecord() *KnowledgeRecord {
	return &KnowledgeRecord{
		KnownFacts:      []string{},
		Uncertainties:   []string{},
		MissingFields:   append([]string(nil), AllFields...),
		AnalysisHistory: []AnalysisSnapshot{},
		ContextAnalysis: NeutralContextAnalysis(),
	}
}

// AppendSnapshot records a completeness/confidence snapshot, keeping the last
// AnalysisHistoryCap entries.
func (k *KnowledgeRecord) AppendSnapshot(s AnalysisSnapshot) {
	k.AnalysisHistory = append(k.AnalysisHistory, s)
	if len(k.AnalysisHistory) > AnalysisHistoryCap {
		k.AnalysisHistory = k.AnalysisHistory[len(k.AnalysisHistory)-AnalysisHistoryCap:]
	}
}

// NextAction is the recommended conversational move for the next turn.
type NextAction struct {
	Action    string `json:"action"`
	Question  string `json:"question"`
	Reasoning string `json:"reasoning"`
}

// GapDetail carries the per-field assessment from gap detection.
type GapDetail struct {
	Field        string   `json:"field"`
	Criticality  string   `json:"criticality"` // critical | high | medium | low
	Impact       string   `json:"impact"`      // blocks_everything | blocks_planning | blocks_execution | minor_impact
	Dependencies []string `json:"dependencies,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// Todo is a UI-facing checklist item derived 1:1 from an open gap.
type Todo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
	Action   string `json:"action"`
	IsNext   bool   `json:"isNext"`
}

// GapRecord holds the gap-detection output. Rewritten each turn.
type GapRecord struct {
	CriticalGaps  []string    `json:"criticalGaps"`
	Details       []GapDetail `json:"gapDetails,omitempty"`
	PriorityScore float64     `json:"priorityScore"`
	NextAction    NextAction  `json:"nextAction"`
	Reasoning     string      `json:"reasoning,omitempty"`
	Todos         []Todo      `json:"todos"`
}

// NewGapRecord returns an empty gap record.
func NewGapRecord() *GapRecord {
	return &GapRecord{
		CriticalGaps: []string{},
		Todos:        []Todo{},
	}
}

// UserPatterns is the running per-user communication profile.
type UserPatterns struct {
	ResponseTime           string `json:"responseTime"`
	PreferredQuestionStyle string `json:"preferredQuestionStyle"`
	EngagementLevel        string `json:"engagementLevel"`
	ProjectType            string `json:"projectType"`
	CommunicationStyle     string `json:"communicationStyle,omitempty"`
}

// EffectivenessStat is the running mean effectiveness for one action.
type EffectivenessStat struct {
	TotalInteractions    int     `json:"totalInteractions"`
	TotalEffectiveness   float64 `json:"totalEffectiveness"`
	AverageEffectiveness float64 `json:"averageEffectiveness"`
}

// Interaction is one entry in the learning interaction history.
type Interaction struct {
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning,omitempty"`
	ResponseQuality string    `json:"responseQuality,omitempty"`
	EngagementLevel string    `json:"engagementLevel,omitempty"`
	Effectiveness   float64   `json:"effectiveness,omitempty"`
}

// LearningRecord is the per-user record spanning all of that user's projects.
type LearningRecord struct {
	UserPatterns          UserPatterns                 `json:"userPatterns"`
	QuestionEffectiveness map[string]EffectivenessStat `json:"questionEffectiveness"`
	InteractionHistory    []Interaction                `json:"interactionHistory"`
}

// NewLearningRecord returns a learning record with neutral pattern defaults.
func NewLearningRecord() *LearningRecord {
	return &LearningRecord{
		UserPatterns: UserPatterns{
			ResponseTime:           "avg_1_hour",
			PreferredQuestionStyle: "direct",
			EngagementLevel:        "medium",
			ProjectType:            "general",
		},
		QuestionEffectiveness: map[string]EffectivenessStat{},
		InteractionHistory:    []Interaction{},
	}
}

// AppendInteraction appends to the interaction history, keeping the last
// limit entries.
func (l *LearningRecord) AppendInteraction(in Interaction, limit int) {
	l.InteractionHistory = append(l.InteractionHistory, in)
	if limit > 0 && len(l.InteractionHistory) > limit {
		l.InteractionHistory = l.InteractionHistory[len(l.InteractionHistory)-limit:]
	}
}

// RecordEffectiveness rolls one interaction's effectiveness into the running
// mean for its action.
func (l *LearningRecord) RecordEffectiveness(action string, effectiveness float64) {
	if l.QuestionEffectiveness == nil {
		l.QuestionEffectiveness = map[string]EffectivenessStat{}
	}
	stat := l.QuestionEffectiveness[action]
	stat.TotalInteractions++
	stat.TotalEffectiveness += effectiveness
	stat.AverageEffectiveness = stat.TotalEffectiveness / float64(stat.TotalInteractions)
	l.QuestionEffectiveness[action] = stat
}

// ReflectionEntry is one advisory note in the reflection log.
type ReflectionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// ReflectionRecord is the per-project advisory self-assessment log. It is
// never read back into decision logic.
type ReflectionRecord struct {
	AnalysisHistory        []ReflectionEntry `json:"analysisHistory"`
	DecisionLog            []ReflectionEntry `json:"decisionLog"`
	ImprovementSuggestions []string          `json:"improvementSuggestions"`
	LastReflection         time.Time         `json:"lastReflection"`
}

// NewReflectionRecord returns an empty reflection record.
func NewReflectionRecord() *ReflectionRecord {
	return &ReflectionRecord{
		AnalysisHistory:        []ReflectionEntry{},
		DecisionLog:            []ReflectionEntry{},
		ImprovementSuggestions: []string{},
	}
}

// AppendAnalysis appends to the analysis history under the retention cap.
func (r *ReflectionRecord) AppendAnalysis(e ReflectionEntry) {
	r.AnalysisHistory = append(r.AnalysisHistory, e)
	if len(r.AnalysisHistory) > ReflectionHistoryCap {
		r.AnalysisHistory = r.AnalysisHistory[len(r.AnalysisHistory)-ReflectionHistoryCap:]
	}
}

// AppendDecision appends to the decision log under the retention cap.
func (r *ReflectionRecord) AppendDecision(e ReflectionEntry) {
	r.DecisionLog = append(r.DecisionLog, e)
	if len(r.DecisionLog) > DecisionLogCap {
		r.DecisionLog = r.DecisionLog[len(r.DecisionLog)-DecisionLogCap:]
	}
}
