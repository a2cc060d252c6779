package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

type mockBudgetStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{values: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func TestBudget_UnlimitedAllowsEverything(t *testing.T) {
	b := NewBudgetTracker("test", 0, 0, BudgetActionReject, zap.NewNop())

	b.Record(1_000_000)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("unlimited budget rejected: %v", err)
	}
	if got := b.RemainingDaily(); got != -1 {
		t.Errorf("RemainingDaily=%d, want -1 (unlimited)", got)
	}
}

func TestBudget_RejectWhenExceeded(t *testing.T) {
	b := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())

	b.Record(100)
	err := b.Check(context.Background())
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("err=%v, want ErrBudgetExceeded", err)
	}
}

func TestBudget_WarnAllowsWhenExceeded(t *testing.T) {
	b := NewBudgetTracker("test", 100, 0, BudgetActionWarn, zap.NewNop())

	b.Record(150)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("warn action must not reject: %v", err)
	}
}

func TestBudget_RemainingClampsAtZero(t *testing.T) {
	b := NewBudgetTracker("test", 100, 200, BudgetActionWarn, zap.NewNop())

	b.Record(150)
	if got := b.RemainingDaily(); got != 0 {
		t.Errorf("RemainingDaily=%d, want 0", got)
	}
	if got := b.RemainingMonthly(); got != 50 {
		t.Errorf("RemainingMonthly=%d, want 50", got)
	}
}

func TestBudgetWindow_Rollover(t *testing.T) {
	day1 := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)

	w := newBudgetWindow("daily", "2006-01-02", 100, day1)
	w.used = 80

	// Same day: counter untouched.
	w.rollover(day1.Add(2 * time.Hour))
	if w.used != 80 {
		t.Errorf("used after same-day rollover=%d, want 80", w.used)
	}

	// Next day: counter resets, key moves to the new period.
	w.rollover(day2)
	if w.used != 0 {
		t.Errorf("used after day change=%d, want 0", w.used)
	}
	if got, want := w.key("test", day2), "budget:test:daily:2026-09-01"; got != want {
		t.Errorf("key=%q, want %q", got, want)
	}
}

func TestBudgetWindow_MonthlyInstance(t *testing.T) {
	w := newBudgetWindow("monthly", "2006-01", 0, time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC))

	if want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC); !w.start.Equal(want) {
		t.Errorf("start=%v, want %v", w.start, want)
	}
	if got := w.remaining(); got != -1 {
		t.Errorf("remaining with zero limit=%d, want -1", got)
	}
}

func TestBudget_PersistsAndReloads(t *testing.T) {
	store := newMockBudgetStore()
	ctx := context.Background()

	b1 := NewBudgetTracker("test", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(ctx, store)
	b1.Record(300)

	// A fresh tracker must pick up the persisted counters.
	b2 := NewBudgetTracker("test", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(ctx, store)
	if got := b2.DailyUsed(); got != 300 {
		t.Errorf("DailyUsed after reload=%d, want 300", got)
	}
}
