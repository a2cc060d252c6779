package recall

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// --- Mocks ---

type mockVectors struct {
	records []domain.Embedding
	listErr error
}

func (m *mockVectors) Get(_ context.Context, itemType item.Type, itemID string) ([]float32, error) {
	for _, r := range m.records {
		if r.ItemType == itemType && r.ItemID == itemID {
			return r.Vector, nil
		}
	}
	return nil, fmt.Errorf("embedding %s/%s: %w", itemType, itemID, domain.ErrNotFound)
}

func (m *mockVectors) ListCandidates(_ context.Context, typeFilter *item.Type) ([]domain.Embedding, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if typeFilter == nil {
		out := make([]domain.Embedding, len(m.records))
		copy(out, m.records)
		return out, nil
	}
	var out []domain.Embedding
	for _, r := range m.records {
		if r.ItemType == *typeFilter {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockSources struct {
	texts map[string]string // "type/id" -> text
}

func (m *mockSources) GetText(_ context.Context, itemType item.Type, itemID string) (string, error) {
	if text, ok := m.texts[itemType.String()+"/"+itemID]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%s %s: %w", itemType, itemID, domain.ErrNotFound)
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newTestService(t *testing.T, vectors *mockVectors, sources *mockSources, embed *mockEmbedder) *Service {
	t.Helper()
	if sources == nil {
		sources = &mockSources{texts: map[string]string{}}
	}
	if embed == nil {
		embed = &mockEmbedder{}
	}
	return New(vectors, sources, embed, 2, true, zap.NewNop())
}
