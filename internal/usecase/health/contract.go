package health

import "context"

// DBPinger reports whether the embedded database answers queries.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker reports whether the embedding provider is
// reachable. A failure here degrades the service rather than
// taking it down, text queries fall back to a random vector.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
