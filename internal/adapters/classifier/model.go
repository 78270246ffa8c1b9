package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TokenCount holds per-label occurrence counts for one token
type TokenCount struct {
	Spam int64 `json:"spam"`
	Ham  int64 `json:"ham"`
}

// Model is the trained multinomial Naive Bayes artifact, serialized as JSON
type Model struct {
	Version     int                   `json:"version"`
	TrainedAt   time.Time             `json:"trained_at"`
	SpamDocs    int64                 `json:"spam_docs"`
	HamDocs     int64                 `json:"ham_docs"`
	SpamTokens  int64                 `json:"spam_tokens"`
	HamTokens   int64                 `json:"ham_tokens"`
	TokenCounts map[string]TokenCount `json:"token_counts"`
}

// ModelVersion is the artifact format version written by the trainer
const ModelVersion = 1

// LoadModel reads and validates a model artifact from disk
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	if model.Version != ModelVersion {
		return nil, fmt.Errorf("unsupported model version %d", model.Version)
	}
	if model.SpamDocs+model.HamDocs == 0 || len(model.TokenCounts) == 0 {
		return nil, fmt.Errorf("model artifact is empty")
	}

	return &model, nil
}

// Save writes the model artifact to disk
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}

// Vocabulary returns the number of distinct tokens seen during training
func (m *Model) Vocabulary() int {
	return len(m.TokenCounts)
}
