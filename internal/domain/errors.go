package domain

import "errors"

var (
	// ErrNotFound signals a missing embedding record or source entity.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals malformed input (empty/non-finite vector,
	// missing query field, non-positive top_k).
	ErrValidation = errors.New("validation failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrBudgetExceeded signals an exhausted embedding token budget.
	ErrBudgetExceeded = errors.New("embedding budget exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
