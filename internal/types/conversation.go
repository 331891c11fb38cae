package types

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TurnAnalysis carries the stage outputs attached to an assistant turn so the
// caller can extract todos and confidence later without re-running anything.
type TurnAnalysis struct {
	Knowledge *KnowledgeRecord `json:"knowledge,omitempty"`
	Gaps      *GapRecord       `json:"gaps,omitempty"`
	Plan      *ActionPlan      `json:"plan,omitempty"`
	Extracted *ExtractedInfo   `json:"extracted,omitempty"`
}

// ChatTurn is one message in a project's conversation.
type ChatTurn struct {
	Role      string        `json:"role"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"sessionId,omitempty"`
	Analysis  *TurnAnalysis `json:"analysis,omitempty"`
}

// ChatHistory is the ordered, append-only conversation for a project.
type ChatHistory struct {
	Turns []ChatTurn `json:"turns"`
}

// NewChatHistory returns an empty history.
func NewChatHistory() *ChatHistory {
	return &ChatHistory{Turns: []ChatTurn{}}
}

// Recent returns the last n turns.
func (h *ChatHistory) Recent(n int) []ChatTurn {
	if n <= 0 || len(h.Turns) <= n {
		return h.Turns
	}
	return h.Turns[len(h.Turns)-n:]
}

// UserTurns returns the user-role subset of the given turns.
func UserTurns(turns []ChatTurn) []ChatTurn {
	out := make([]ChatTurn, 0, len(turns))
	for _, t := range turns {
		if t.Role == RoleUser {
			out = append(out, t)
		}
	}
	return out
}

// ActionPlan is the single next conversational move chosen for a turn.
// Ephemeral: attached to the assistant turn, never persisted standalone.
type ActionPlan struct {
	Action             string   `json:"action"`
	Question           string   `json:"question"`
	Reasoning          string   `json:"reasoning"`
	Timing             string   `json:"timing"` // immediate | delayed
	Confidence         float64  `json:"confidence"`
	AlternativeActions []string `json:"alternativeActions,omitempty"`
	ExpectedResponse   string   `json:"expectedResponse,omitempty"`
}

// ExtractedFields holds the project attributes pulled from one user message.
type ExtractedFields struct {
	Scope        string   `json:"scope,omitempty"`
	Timeline     string   `json:"timeline,omitempty"`
	Budget       string   `json:"budget,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ExtractedInfo is the ephemeral result of interpreting a user message.
type ExtractedInfo struct {
	Confidence         float64         `json:"confidence"`
	Fields             ExtractedFields `json:"extractedFields"`
	ExtractionQuality  string          `json:"extractionQuality,omitempty"`
	NeedsClarification bool            `json:"needsClarification,omitempty"`
	Confirmation       *bool           `json:"confirmation,omitempty"`
	AdditionalInfo     string          `json:"additionalInfo,omitempty"`
}

// ProcessingStatus lets an external poller observe an in-flight turn.
type ProcessingStatus struct {
	Phase     string    `json:"phase"` // loading | analyzing | planning | responding | done | failed
	UpdatedAt time.Time `json:"updatedAt"`
}

// TurnResult is the orchestrator's reply to the request router.
type TurnResult struct {
	Message  string         `json:"message"`
	Analysis *TurnAnalysis  `json:"analysis,omitempty"`
	Todos    []Todo         `json:"todos"`
	Project  *ProjectRecord `json:"projectRecord"`
}
