package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
// Implementations must be idempotent (IncrBy can be called repeatedly).
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// budgetWindow tracks token consumption over one UTC calendar period and
// rolls its counter to zero when the period changes. Not safe for
// concurrent use on its own, the tracker's mutex guards it.
type budgetWindow struct {
	period    string // counter key segment: "daily" or "monthly"
	keyLayout string // time layout identifying the period instance
	limit     int64
	used      int64
	start     time.Time
}

func newBudgetWindow(period, keyLayout string, limit int64, now time.Time) budgetWindow {
	w := budgetWindow{period: period, keyLayout: keyLayout, limit: limit}
	w.start = w.instance(now)
	return w
}

// instance returns the start of the period containing t.
func (w *budgetWindow) instance(t time.Time) time.Time {
	if w.keyLayout == "2006-01" {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rollover zeroes the counter when the period has changed since start.
func (w *budgetWindow) rollover(now time.Time) {
	if s := w.instance(now); s.After(w.start) {
		w.used = 0
		w.start = s
	}
}

func (w *budgetWindow) key(provider string, t time.Time) string {
	return fmt.Sprintf("budget:%s:%s:%s", provider, w.period, t.Format(w.keyLayout))
}

func (w *budgetWindow) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// remaining returns tokens left in the window, -1 when unlimited.
func (w *budgetWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	if left := w.limit - w.used; left > 0 {
		return left
	}
	return 0
}

// BudgetTracker enforces daily and monthly token budgets. Check runs on
// in-memory counters only (hot path); Record updates memory first and then
// writes behind to the attached store so counters survive restarts.
type BudgetTracker struct {
	mu       sync.Mutex
	day      budgetWindow
	month    budgetWindow
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits. A zero
// limit means that window is unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	return &BudgetTracker{
		day:      newBudgetWindow("daily", "2006-01-02", dailyLimit, now),
		month:    newBudgetWindow("monthly", "2006-01", monthlyLimit, now),
		action:   action,
		provider: provider,
		logger:   logger,
	}
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := time.Now().UTC()
	for _, w := range []*budgetWindow{&b.day, &b.month} {
		val, err := store.Get(ctx, w.key(b.provider, now))
		if err != nil {
			b.logger.Warn("Failed to load budget counter from store",
				zap.String("period", w.period), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Check verifies the budget allows a new request. In-memory only (hot path).
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	b.day.rollover(now)
	b.month.rollover(now)

	if !b.day.exceeded() && !b.month.exceeded() {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrBudgetExceeded
	}

	// action=warn: log but allow the request through
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record registers consumed tokens after a request. Updates in-memory
// counters, then write-behind to the store (if attached).
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := time.Now().UTC()
	keys := make([]string, 0, 2)
	for _, w := range []*budgetWindow{&b.day, &b.month} {
		w.rollover(now)
		w.used += tokens
		keys = append(keys, w.key(b.provider, now))
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Write-behind so store writes don't block the caller.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget counter",
				zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.day.rollover(time.Now().UTC())
	return b.day.remaining()
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.month.rollover(time.Now().UTC())
	return b.month.remaining()
}

// DailyLimit returns the daily token cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.day.limit }

// MonthlyLimit returns the monthly token cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.month.limit }

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.day.rollover(time.Now().UTC())
	return b.day.used
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.month.rollover(time.Now().UTC())
	return b.month.used
}
