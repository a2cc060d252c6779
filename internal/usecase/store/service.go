// Package store handles embedding ingestion and statistics reporting.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// VectorWriter persists embedding records.
type VectorWriter interface {
	Upsert(ctx context.Context, rec domain.Embedding) error
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context) (map[item.Type]int, error)
}

// Embedder vectorizes source text when no explicit vector is supplied.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Stats reports the stored embedding population.
type Stats struct {
	Total  int
	ByType map[item.Type]int
}

// Service handles store_embedding and stats operations.
type Service struct {
	vectors VectorWriter
	embed   Embedder
	model   string
	logger  *zap.Logger
}

// New creates a store service. model tags new records with the configured
// model version.
func New(vectors VectorWriter, embed Embedder, model string, logger *zap.Logger) *Service {
	return &Service{vectors: vectors, embed: embed, model: model, logger: logger}
}

// StoreVector validates and upserts an explicit vector for (item_type, item_id).
func (s *Service) StoreVector(ctx context.Context, itemType item.Type, itemID string, vector []float32) error {
	rec := domain.Embedding{
		ItemType: itemType,
		ItemID:   itemID,
		Vector:   vector,
		Model:    s.model,
	}
	if err := s.vectors.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// StoreText embeds the given text and upserts the resulting vector.
// Embedding failures surface to the caller; unlike search there is no
// degraded fallback, a stored garbage vector would poison every later query.
func (s *Service) StoreText(ctx context.Context, itemType item.Type, itemID, text string) error {
	if text == "" {
		return fmt.Errorf("text is required: %w", domain.ErrValidation)
	}

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}

	if err := s.StoreVector(ctx, itemType, itemID, res.Embedding); err != nil {
		return err
	}

	s.logger.Debug("Stored embedding",
		zap.String("item_type", itemType.String()),
		zap.String("item_id", itemID),
		zap.Int("dimensions", len(res.Embedding)),
	)
	return nil
}

// GetStats returns the total and per-type embedding counts.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	total, err := s.vectors.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count embeddings: %w", err)
	}
	byType, err := s.vectors.CountByType(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count embeddings by type: %w", err)
	}
	return Stats{Total: total, ByType: byType}, nil
}
