package reindex

import (
	"context"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// SourceReader lists and reads the source rows to reindex.
type SourceReader interface {
	ListIDs(ctx context.Context, itemType item.Type) ([]string, error)
	GetText(ctx context.Context, itemType item.Type, itemID string) (string, error)
}

// VectorStore is the embedding table being rebuilt.
type VectorStore interface {
	Upsert(ctx context.Context, rec domain.Embedding) error
	Get(ctx context.Context, itemType item.Type, itemID string) ([]float32, error)
	Clear(ctx context.Context, typeFilter *item.Type) (int, error)
}

// Embedder vectorizes source text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
