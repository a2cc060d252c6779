package recall

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dbPath       string
	embedder     Embedder
	embedTimeout time.Duration
	model        string
	dimensions   int
	fallback     bool
	logger       *zap.Logger
}

// WithDBPath sets the embedded database file path.
// Defaults to "data/recall.db".
func WithDBPath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dbPath = path
	})
}

// WithEmbedder sets the text embedding provider.
// Required for text queries and text ingestion; vector operations work
// without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbedderTimeout sets the per-call deadline applied to the embedder.
// Defaults to 30 seconds; 0 disables the bound.
func WithEmbedderTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedTimeout = d
	})
}

// WithModel tags stored embeddings with a model version label.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithDimensions sets the expected vector dimensionality.
// Defaults to 1536 (text-embedding-3-small).
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithoutDegradedFallback makes text queries fail when the embedding
// provider is unavailable, instead of degrading to a pseudo-random vector.
func WithoutDegradedFallback() Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = false
	})
}

// WithLogger enables structured logging for client operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
