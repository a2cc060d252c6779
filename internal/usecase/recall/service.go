// Package recall orchestrates similarity search: query resolution, candidate
// ranking, and result hydration.
package recall

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	domrecall "github.com/kailas-cloud/recall/internal/domain/recall"
	"github.com/kailas-cloud/recall/internal/metrics"
	"github.com/kailas-cloud/recall/internal/rank"
)

// deletedSourcePlaceholder stands in for the text of a source entity that was
// removed after its embedding was stored.
const deletedSourcePlaceholder = "(source deleted)"

// Service handles similarity recall over stored embeddings.
type Service struct {
	vectors  VectorReader
	sources  SourceReader
	embed    Embedder
	dims     int
	fallback bool
	logger   *zap.Logger
}

// New creates a recall service. dims is the configured model dimensionality,
// used to shape degraded-mode fallback vectors. fallback controls whether an
// embedding provider failure on a text query degrades to a pseudo-random
// vector instead of failing the request.
func New(
	vectors VectorReader, sources SourceReader, embed Embedder,
	dims int, fallback bool, logger *zap.Logger,
) *Service {
	return &Service{
		vectors:  vectors,
		sources:  sources,
		embed:    embed,
		dims:     dims,
		fallback: fallback,
		logger:   logger,
	}
}

// Search resolves the query into a vector, ranks the candidate pool, and
// hydrates the top-K results with source text.
func (s *Service) Search(ctx context.Context, q domrecall.Query) (domrecall.Response, error) {
	vec, degraded, err := s.resolveQuery(ctx, q)
	if err != nil {
		return domrecall.Response{}, err
	}

	candidates, err := s.vectors.ListCandidates(ctx, q.TypeFilter())
	if err != nil {
		return domrecall.Response{}, fmt.Errorf("list candidates: %w", err)
	}

	// A record must never be its own top match.
	if q.Kind() == domrecall.KindItem {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.ItemType == q.ItemType() && c.ItemID == q.ItemID() {
				continue
			}
			filtered = append(filtered, c)
		}
		candidates = filtered
	}

	results, skipped := rank.Rank(vec, candidates, q.TopK())
	if skipped > 0 {
		s.logger.Warn("Skipped candidates with mismatched dimensionality",
			zap.Int("skipped", skipped),
			zap.Int("query_dim", len(vec)),
		)
	}

	for i := range results {
		text, err := s.sources.GetText(ctx, results[i].ItemType(), results[i].ItemID())
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Source entity deleted since the embedding was stored; keep the
			// hit, flag the gap.
			s.logger.Warn("Source entity missing for stored embedding",
				zap.String("item_type", results[i].ItemType().String()),
				zap.String("item_id", results[i].ItemID()),
			)
			results[i] = results[i].WithText(deletedSourcePlaceholder)
		case err != nil:
			return domrecall.Response{}, fmt.Errorf("hydrate result text: %w", err)
		default:
			results[i] = results[i].WithText(text)
		}
	}

	mode := "normal"
	if degraded {
		mode = "degraded"
	}
	metrics.SearchesTotal.WithLabelValues(string(q.Kind()), mode).Inc()

	return domrecall.Response{
		Results:    results,
		QueryType:  q.Kind(),
		TotalFound: len(results),
		Degraded:   degraded,
		Skipped:    skipped,
	}, nil
}

// resolveQuery turns the query variant into a concrete vector.
// Precedence (item > text > vector) is enforced by the Query constructors;
// exactly one variant is populated here.
func (s *Service) resolveQuery(ctx context.Context, q domrecall.Query) ([]float32, bool, error) {
	switch q.Kind() {
	case domrecall.KindItem:
		vec, err := s.vectors.Get(ctx, q.ItemType(), q.ItemID())
		if err != nil {
			return nil, false, fmt.Errorf("resolve query item: %w", err)
		}
		return vec, false, nil

	case domrecall.KindText:
		res, err := s.embed.Embed(ctx, q.Text())
		if err == nil {
			return res.Embedding, false, nil
		}
		if !s.fallback {
			return nil, false, fmt.Errorf("embed query text: %w", err)
		}
		// Availability over precision: serve the request on a pseudo-random
		// vector and flag the response as degraded.
		s.logger.Warn("Embedding capability unavailable, serving degraded recall",
			zap.Error(err),
		)
		return randomUnitVector(s.dims), true, nil

	case domrecall.KindVector:
		return q.Vector(), false, nil
	}
	return nil, false, fmt.Errorf("unresolvable query kind %q: %w", q.Kind(), domain.ErrValidation)
}

// randomUnitVector returns a normalized random vector of dim components.
func randomUnitVector(dim int) []float32 {
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		v[i] = rand.Float32()
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
