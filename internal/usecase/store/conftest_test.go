package store

import (
	"context"
	"errors"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

type mockVectors struct {
	records map[string]domain.Embedding
	failed  bool
}

func newMockVectors() *mockVectors {
	return &mockVectors{records: make(map[string]domain.Embedding)}
}

func (m *mockVectors) Upsert(_ context.Context, rec domain.Embedding) error {
	if m.failed {
		return errors.New("disk full")
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	m.records[rec.ItemType.String()+"/"+rec.ItemID] = rec
	return nil
}

func (m *mockVectors) Count(_ context.Context) (int, error) {
	return len(m.records), nil
}

func (m *mockVectors) CountByType(_ context.Context) (map[item.Type]int, error) {
	out := make(map[item.Type]int)
	for _, rec := range m.records {
		out[rec.ItemType]++
	}
	return out, nil
}

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, PromptTokens: 4, TotalTokens: 4}, nil
}
