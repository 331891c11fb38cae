// Package classifier implements the cheap intent pre-filter that runs
// before any LLM call. It is a multinomial naive-Bayes model trained
// from a baked-in corpus of example utterances, persisted to the store
// and re-trained only when the corpus version tag changes.
package classifier

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"groundwork/internal/logging"
	"groundwork/internal/store"
)

// ModelVersion tags the persisted model. Bump when the corpus or the
// tokenizer changes so stale models are discarded on load.
const ModelVersion = "2"

// Classification is the result of classifying one utterance.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	// Answer is the canned reply for this intent, empty when the
	// intent has no canned reply and must go through the LLM.
	Answer string `json:"answer,omitempty"`
}

// Model is the trained naive-Bayes state. Serialized as JSON into the
// store under the intent model key.
type Model struct {
	Version     string                        `json:"version"`
	Intents     []string                      `json:"intents"`
	Priors      map[string]float64            `json:"priors"`
	TokenCounts map[string]map[string]float64 `json:"tokenCounts"`
	TotalTokens map[string]float64            `json:"totalTokens"`
	VocabSize   int                           `json:"vocabSize"`
}

// Classifier wraps a trained model with canned answers.
type Classifier struct {
	mu    sync.RWMutex
	model *Model
}

// New trains a classifier from the baked-in corpus.
func New() *Classifier {
	return &Classifier{model: train()}
}

// LoadOrTrain restores the persisted model, or trains and persists a
// fresh one when the store has none or the version tag is stale. Store
// failures degrade to an in-memory trained model.
func LoadOrTrain(ctx context.Context, st store.Store) *Classifier {
	var model Model
	raw, err := st.Get(ctx, store.IntentModelKey)
	if err == nil {
		if decodeErr := decodeModel(raw, &model); decodeErr == nil && model.Version == ModelVersion {
			logging.Classifier("loaded persisted intent model version=%s intents=%d", model.Version, len(model.Intents))
			return &Classifier{model: &model}
		}
		logging.Classifier("persisted intent model stale or corrupt, retraining")
	}

	c := New()
	if encoded, encErr := encodeModel(c.model); encErr == nil {
		if saveErr := st.Set(ctx, store.IntentModelKey, encoded); saveErr != nil {
			logging.Classifier("failed to persist intent model: %v", saveErr)
		}
	}
	return c
}

// Classify maps an utterance to its best intent with a confidence in
// [0,1]. Confidence is the normalized posterior over all intents.
func (c *Classifier) Classify(text string) Classification {
	c.mu.RLock()
	model := c.model
	c.mu.RUnlock()

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Classification{Intent: IntentUnknown, Confidence: 0}
	}

	timer := logging.StartTimer("classifier", "classify")
	defer timer.Stop()

	// Log-space scores, shifted by the max before exponentiating so
	// normalization does not underflow.
	scores := make(map[string]float64, len(model.Intents))
	best := math.Inf(-1)
	for _, intent := range model.Intents {
		s := math.Log(model.Priors[intent])
		counts := model.TokenCounts[intent]
		denom := model.TotalTokens[intent] + float64(model.VocabSize)
		for _, tok := range tokens {
			s += math.Log((counts[tok] + 1) / denom)
		}
		scores[intent] = s
		if s > best {
			best = s
		}
	}

	var total float64
	for intent, s := range scores {
		p := math.Exp(s - best)
		scores[intent] = p
		total += p
	}

	bestIntent := IntentUnknown
	bestProb := 0.0
	for _, intent := range model.Intents {
		p := scores[intent] / total
		if p > bestProb {
			bestProb = p
			bestIntent = intent
		}
	}

	result := Classification{
		Intent:     bestIntent,
		Confidence: bestProb,
		Answer:     cannedAnswers[bestIntent],
	}
	logging.ClassifierDebug("classified %q as %s (%.2f)", truncate(text, 60), result.Intent, result.Confidence)
	return result
}

// train builds the model from the baked-in corpus.
func train() *Model {
	model := &Model{
		Version:     ModelVersion,
		Priors:      make(map[string]float64),
		TokenCounts: make(map[string]map[string]float64),
		TotalTokens: make(map[string]float64),
	}

	vocab := make(map[string]struct{})
	var totalExamples int
	for intent, examples := range trainingCorpus {
		model.Intents = append(model.Intents, intent)
		counts := make(map[string]float64)
		for _, example := range examples {
			for _, tok := range tokenize(example) {
				counts[tok]++
				model.TotalTokens[intent]++
				vocab[tok] = struct{}{}
			}
		}
		model.TokenCounts[intent] = counts
		totalExamples += len(examples)
	}
	sort.Strings(model.Intents)

	for intent, examples := range trainingCorpus {
		model.Priors[intent] = float64(len(examples)) / float64(totalExamples)
	}
	model.VocabSize = len(vocab)
	return model
}

// tokenize lowercases and splits on non-alphanumeric runes, keeping
// digits so amounts and dates stay distinguishable.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
