package chi

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	recalluc "github.com/kailas-cloud/recall/internal/usecase/recall"
	reindexuc "github.com/kailas-cloud/recall/internal/usecase/reindex"
	storeuc "github.com/kailas-cloud/recall/internal/usecase/store"
	usageuc "github.com/kailas-cloud/recall/internal/usecase/usage"
)

// fakeStore is an in-memory stand-in for the sqlite repositories. It backs
// every usecase wired into the test server.
type fakeStore struct {
	vectors map[string]domain.Embedding
	sources map[string]string
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vectors: make(map[string]domain.Embedding),
		sources: make(map[string]string),
	}
}

func key(t item.Type, id string) string { return t.String() + "/" + id }

func (f *fakeStore) Upsert(_ context.Context, rec domain.Embedding) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	f.vectors[key(rec.ItemType, rec.ItemID)] = rec
	return nil
}

func (f *fakeStore) Get(_ context.Context, t item.Type, id string) ([]float32, error) {
	rec, ok := f.vectors[key(t, id)]
	if !ok {
		return nil, fmt.Errorf("embedding %s/%s: %w", t, id, domain.ErrNotFound)
	}
	return rec.Vector, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, typeFilter *item.Type) ([]domain.Embedding, error) {
	var out []domain.Embedding
	for _, rec := range f.vectors {
		if typeFilter != nil && rec.ItemType != *typeFilter {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return key(out[i].ItemType, out[i].ItemID) < key(out[j].ItemType, out[j].ItemID)
	})
	return out, nil
}

func (f *fakeStore) Clear(_ context.Context, typeFilter *item.Type) (int, error) {
	removed := 0
	for k, rec := range f.vectors {
		if typeFilter != nil && rec.ItemType != *typeFilter {
			continue
		}
		delete(f.vectors, k)
		removed++
	}
	return removed, nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) {
	return len(f.vectors), nil
}

func (f *fakeStore) CountByType(_ context.Context) (map[item.Type]int, error) {
	out := make(map[item.Type]int)
	for _, rec := range f.vectors {
		out[rec.ItemType]++
	}
	return out, nil
}

func (f *fakeStore) GetText(_ context.Context, t item.Type, id string) (string, error) {
	text, ok := f.sources[key(t, id)]
	if !ok {
		return "", fmt.Errorf("source %s/%s: %w", t, id, domain.ErrNotFound)
	}
	return text, nil
}

func (f *fakeStore) ListIDs(_ context.Context, t item.Type) ([]string, error) {
	prefix := t.String() + "/"
	var ids []string
	for k := range f.sources {
		if strings.HasPrefix(k, prefix) {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector, PromptTokens: 4, TotalTokens: 4}, nil
}

func (f *fakeEmbedder) HealthCheck(_ context.Context) error { return f.err }

// newTestServer wires the full handler stack over the fake store,
// with the stock top_k default.
func newTestServer(fs *fakeStore, embed *fakeEmbedder) *httptest.Server {
	return newTestServerTopK(fs, embed, 0)
}

// newTestServerTopK is newTestServer with a configured top_k default.
func newTestServerTopK(fs *fakeStore, embed *fakeEmbedder, defaultTopK int) *httptest.Server {
	logger := zap.NewNop()

	srv := NewServer(
		recalluc.New(fs, fs, embed, 2, true, logger),
		storeuc.New(fs, embed, "test-model", logger),
		reindexuc.New(fs, fs, embed, "test-model", 2, logger),
		usageuc.New(nil),
		healthuc.New(fs, embed),
		defaultTopK,
		logger,
	)

	r := gochi.NewRouter()
	srv.Routes(r)
	return httptest.NewServer(r)
}
