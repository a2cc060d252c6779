package recall

import (
	"context"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// VectorReader reads stored embedding records.
type VectorReader interface {
	Get(ctx context.Context, itemType item.Type, itemID string) ([]float32, error)
	ListCandidates(ctx context.Context, typeFilter *item.Type) ([]domain.Embedding, error)
}

// SourceReader hydrates result texts from the owning entity stores.
type SourceReader interface {
	GetText(ctx context.Context, itemType item.Type, itemID string) (string, error)
}

// Embedder vectorizes raw query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
