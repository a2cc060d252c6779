package usage

// BudgetReader exposes the embedding token budget counters. The
// tracker behind it is shared with the write path, so all methods
// must be safe for concurrent use.
type BudgetReader interface {
	DailyLimit() int64
	DailyUsed() int64
	RemainingDaily() int64
	MonthlyLimit() int64
	MonthlyUsed() int64
	RemainingMonthly() int64
}
