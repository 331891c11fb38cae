// Package store persists the per-project and per-user JSON records behind a
// small key-value interface. Keys follow deterministic per-entity templates;
// there are no transactions, and batch access is composed from parallel
// get/set calls by the caller.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no record exists for the key.
// Callers are expected to substitute the record's default.
var ErrNotFound = errors.New("store: key not found")

// Store is the record store used by the pipeline. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the raw JSON for key, or ErrNotFound.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set writes the raw JSON for key, replacing any prior value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}

// Key templates. One record per key.
const (
	projectPrefix    = "project:"
	knowledgePrefix  = "knowledge:"
	gapsPrefix       = "gaps:"
	learningPrefix   = "learning:"
	reflectionPrefix = "reflection:"
	chatPrefix       = "chat:"
	processingPrefix = "processing:"
)

// IntentModelKey holds the persisted classifier model.
const IntentModelKey = "intent:model"

// ProjectKey returns the key for a project record.
func ProjectKey(projectID string) string { return projectPrefix + projectID }

// KnowledgeKey returns the key for a project's knowledge record.
func KnowledgeKey(projectID string) string { return knowledgePrefix + projectID }

// GapsKey returns the key for a project's gap record.
func GapsKey(projectID string) string { return gapsPrefix + projectID }

// LearningKey returns the key for a user's learning record. Learning data is
// per-user and spans all of that user's projects.
func LearningKey(userID string) string { return learningPrefix + userID }

// ReflectionKey returns the key for a project's reflection record.
func ReflectionKey(projectID string) string { return reflectionPrefix + projectID }

// ChatKey returns the key for a project's chat history.
func ChatKey(projectID string) string { return chatPrefix + projectID }

// ProcessingKey returns the key for a project's in-flight turn status.
func ProcessingKey(projectID string) string { return processingPrefix + projectID }

// ProjectPrefix exposes the project keyspace prefix for listing.
func ProjectPrefix() string { return projectPrefix }
