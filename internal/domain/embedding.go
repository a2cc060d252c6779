package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/recall/internal/domain/item"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedding is a stored feature vector keyed by its owning source entity.
// At most one record exists per (ItemType, ItemID); a repeated store
// replaces the vector and timestamp wholesale.
type Embedding struct {
	ItemType  item.Type
	ItemID    string
	Vector    []float32
	Model     string
	CreatedAt time.Time
}

// Validate checks the record for storage: non-empty key, non-empty vector,
// finite values only.
func (e *Embedding) Validate() error {
	if e.ItemID == "" {
		return fmt.Errorf("item_id is required: %w", ErrValidation)
	}
	if _, err := item.Parse(string(e.ItemType)); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	return ValidateVector(e.Vector)
}

// ValidateVector rejects empty vectors and NaN/Inf components.
func ValidateVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("vector must not be empty: %w", ErrValidation)
	}
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("vector component %d is not finite: %w", i, ErrValidation)
		}
	}
	return nil
}
