package reindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

type mockSources struct {
	texts map[string]string // "type/id" -> text
}

func newMockSources() *mockSources {
	return &mockSources{texts: make(map[string]string)}
}

func (m *mockSources) put(t item.Type, id, text string) {
	m.texts[t.String()+"/"+id] = text
}

func (m *mockSources) ListIDs(_ context.Context, t item.Type) ([]string, error) {
	prefix := t.String() + "/"
	var ids []string
	for key := range m.texts {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			ids = append(ids, key[len(prefix):])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockSources) GetText(_ context.Context, t item.Type, id string) (string, error) {
	text, ok := m.texts[t.String()+"/"+id]
	if !ok {
		return "", fmt.Errorf("source %s/%s: %w", t, id, domain.ErrNotFound)
	}
	return text, nil
}

type mockVectors struct {
	records map[string]domain.Embedding
}

func newMockVectors() *mockVectors {
	return &mockVectors{records: make(map[string]domain.Embedding)}
}

func (m *mockVectors) Upsert(_ context.Context, rec domain.Embedding) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m.records[rec.ItemType.String()+"/"+rec.ItemID] = rec
	return nil
}

func (m *mockVectors) Get(_ context.Context, t item.Type, id string) ([]float32, error) {
	rec, ok := m.records[t.String()+"/"+id]
	if !ok {
		return nil, fmt.Errorf("embedding %s/%s: %w", t, id, domain.ErrNotFound)
	}
	return rec.Vector, nil
}

func (m *mockVectors) Clear(_ context.Context, typeFilter *item.Type) (int, error) {
	removed := 0
	for key, rec := range m.records {
		if typeFilter != nil && rec.ItemType != *typeFilter {
			continue
		}
		delete(m.records, key)
		removed++
	}
	return removed, nil
}

// failingEmbedder fails for texts listed in failOn and succeeds otherwise.
type failingEmbedder struct {
	vector []float32
	failOn map[string]bool
	calls  int
}

func (m *failingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.failOn[text] {
		return domain.EmbeddingResult{}, fmt.Errorf("provider unavailable: %w", domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{Embedding: m.vector, PromptTokens: 4, TotalTokens: 4}, nil
}
