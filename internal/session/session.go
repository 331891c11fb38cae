// Package session owns conversation bookkeeping around the pipeline:
// session and project identity, the append path for chat turns, and
// the processing-status records an external poller can watch.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"groundwork/internal/logging"
	"groundwork/internal/store"
	"groundwork/internal/types"
)

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewProjectID returns a fresh project identifier.
func NewProjectID() string {
	return uuid.NewString()
}

// NewEmailAlias derives the intake alias assigned to a new project.
// The local part is stable for the life of the project.
func NewEmailAlias() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("intake-%s@", id[:8])
}

// AppendUserTurn records an incoming user message on the history. The caller
// owns persistence; the orchestrator saves the history with the rest of the
// turn's mutations.
func AppendUserTurn(history *types.ChatHistory, sessionID, message string) {
	history.Turns = append(history.Turns, types.ChatTurn{
		Role:      types.RoleUser,
		Message:   message,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	})
}

// AppendAssistantTurn records the pipeline's reply, carrying the turn
// analysis so later readers can surface todos without re-running stages.
func AppendAssistantTurn(history *types.ChatHistory, sessionID, message string, analysis *types.TurnAnalysis) {
	history.Turns = append(history.Turns, types.ChatTurn{
		Role:      types.RoleAssistant,
		Message:   message,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Analysis:  analysis,
	})
}

// Processing phases, in the order the orchestrator reaches them.
const (
	PhaseLoading    = "loading"
	PhaseAnalyzing  = "analyzing"
	PhasePlanning   = "planning"
	PhaseResponding = "responding"
	PhaseDone       = "done"
	PhaseFailed     = "failed"
)

// SetPhase writes the processing status for an in-flight turn.
// Best effort: a failed write is logged and ignored, a status record
// must never block the turn itself.
func SetPhase(ctx context.Context, st store.Store, projectID, phase string) {
	status := types.ProcessingStatus{
		Phase:     phase,
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.SaveProcessing(ctx, st, projectID, status); err != nil {
		logging.Session("failed to write processing status project=%s phase=%s: %v", projectID, phase, err)
	}
}

// GetPhase reads the processing status for a project, defaulting to
// done when no turn has ever run.
func GetPhase(ctx context.Context, st store.Store, projectID string) types.ProcessingStatus {
	status, err := store.LoadProcessing(ctx, st, projectID)
	if err != nil {
		return types.ProcessingStatus{Phase: PhaseDone}
	}
	return status
}
