package store

import (
	"context"
	"encoding/json"
	"fmt"

	"groundwork/internal/logging"
	"groundwork/internal/types"
)

// Typed record access. Every load substitutes the record's default when the
// key is absent or the stored JSON is corrupt, so the pipeline never sees a
// nil record. Transient store failures get one retry before surfacing.

func loadRecord[T any](ctx context.Context, s Store, key string, fresh func() *T) (*T, error) {
	raw, err := getWithRetry(ctx, s, key)
	if err == ErrNotFound {
		return fresh(), nil
	}
	if err != nil {
		return nil, err
	}

	out := fresh()
	if err := json.Unmarshal(raw, out); err != nil {
		logging.Get(logging.CategoryStore).Warn("Corrupt record at %s, using default: %v", key, err)
		return fresh(), nil
	}
	return out, nil
}

func saveRecord(ctx context.Context, s Store, key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %q: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		// One retry for transient failures.
		if err2 := s.Set(ctx, key, data); err2 != nil {
			return err2
		}
	}
	return nil
}

func getWithRetry(ctx context.Context, s Store, key string) (json.RawMessage, error) {
	raw, err := s.Get(ctx, key)
	if err == nil || err == ErrNotFound {
		return raw, err
	}
	return s.Get(ctx, key)
}

// LoadProject loads a project record, defaulting to a fresh record.
func LoadProject(ctx context.Context, s Store, projectID string) (*types.ProjectRecord, error) {
	return loadRecord(ctx, s, ProjectKey(projectID), func() *types.ProjectRecord {
		return types.NewProjectRecord(projectID)
	})
}

// SaveProject persists a project record.
func SaveProject(ctx context.Context, s Store, p *types.ProjectRecord) error {
	return saveRecord(ctx, s, ProjectKey(p.ID), p)
}

// LoadKnowledge loads a project's knowledge record.
func LoadKnowledge(ctx context.Context, s Store, projectID string) (*types.KnowledgeRecord, error) {
	return loadRecord(ctx, s, KnowledgeKey(projectID), types.NewKnowledgeRecord)
}

// SaveKnowledge persists a project's knowledge record.
func SaveKnowledge(ctx context.Context, s Store, projectID string, k *types.KnowledgeRecord) error {
	return saveRecord(ctx, s, KnowledgeKey(projectID), k)
}

// LoadGaps loads a project's gap record.
func LoadGaps(ctx context.Context, s Store, projectID string) (*types.GapRecord, error) {
	return loadRecord(ctx, s, GapsKey(projectID), types.NewGapRecord)
}

// SaveGaps persists a project's gap record.
func SaveGaps(ctx context.Context, s Store, projectID string, g *types.GapRecord) error {
	return saveRecord(ctx, s, GapsKey(projectID), g)
}

// LoadLearning loads a user's learning record.
func LoadLearning(ctx context.Context, s Store, userID string) (*types.LearningRecord, error) {
	return loadRecord(ctx, s, LearningKey(userID), types.NewLearningRecord)
}

// SaveLearning persists a user's learning record.
func SaveLearning(ctx context.Context, s Store, userID string, l *types.LearningRecord) error {
	return saveRecord(ctx, s, LearningKey(userID), l)
}

// LoadReflection loads a project's reflection record.
func LoadReflection(ctx context.Context, s Store, projectID string) (*types.ReflectionRecord, error) {
	return loadRecord(ctx, s, ReflectionKey(projectID), types.NewReflectionRecord)
}

// SaveReflection persists a project's reflection record.
func SaveReflection(ctx context.Context, s Store, projectID string, r *types.ReflectionRecord) error {
	return saveRecord(ctx, s, ReflectionKey(projectID), r)
}

// LoadChat loads a project's chat history.
func LoadChat(ctx context.Context, s Store, projectID string) (*types.ChatHistory, error) {
	return loadRecord(ctx, s, ChatKey(projectID), types.NewChatHistory)
}

// SaveChat persists a project's chat history.
func SaveChat(ctx context.Context, s Store, projectID string, h *types.ChatHistory) error {
	return saveRecord(ctx, s, ChatKey(projectID), h)
}

// LoadProcessing loads a project's in-flight turn status. No default
// constructor: callers treat ErrNotFound as "no turn running".
func LoadProcessing(ctx context.Context, s Store, projectID string) (types.ProcessingStatus, error) {
	raw, err := s.Get(ctx, ProcessingKey(projectID))
	if err != nil {
		return types.ProcessingStatus{}, err
	}
	var status types.ProcessingStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return types.ProcessingStatus{}, fmt.Errorf("corrupt processing status for %s: %w", projectID, err)
	}
	return status, nil
}

// SaveProcessing persists a project's in-flight turn status.
func SaveProcessing(ctx context.Context, s Store, projectID string, status types.ProcessingStatus) error {
	return saveRecord(ctx, s, ProcessingKey(projectID), status)
}
