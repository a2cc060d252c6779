package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

type mockInnerEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockInnerEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumented_Delegates(t *testing.T) {
	inner := &mockInnerEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{1, 2},
		TotalTokens: 5,
	}}
	e := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	result, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("embedding=%v", result.Embedding)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls=%d, want 1", inner.calls)
	}
}

func TestInstrumented_BudgetRejectShortCircuits(t *testing.T) {
	inner := &mockInnerEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	budget := NewBudgetTracker("test", 10, 0, BudgetActionReject, zap.NewNop())
	budget.Record(10)

	e := NewInstrumentedEmbedder(inner, "test", "test-model", budget, zap.NewNop())

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("err=%v, want ErrBudgetExceeded", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times despite rejected budget", inner.calls)
	}
}

func TestInstrumented_RecordsTokens(t *testing.T) {
	inner := &mockInnerEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{1},
		TotalTokens: 7,
	}}
	budget := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())
	e := NewInstrumentedEmbedder(inner, "test", "test-model", budget, zap.NewNop())

	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got := budget.DailyUsed(); got != 7 {
		t.Errorf("DailyUsed=%d, want 7", got)
	}
}

func TestInstrumented_PropagatesProviderError(t *testing.T) {
	inner := &mockInnerEmbedder{err: domain.ErrEmbeddingProviderError}
	e := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err=%v, want ErrEmbeddingProviderError", err)
	}
}
