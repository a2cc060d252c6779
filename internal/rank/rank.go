// Package rank scores candidate embeddings against a query vector by cosine
// similarity and returns an ordered top-K.
package rank

import (
	"math"
	"sort"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/recall"
)

// Cosine returns the cosine similarity dot(a,b)/(|a|*|b|).
// A zero-norm operand yields 0 rather than NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores candidates against query and returns the top-K by descending
// similarity. The sort is stable: candidates with equal scores keep their
// input order. Candidates whose dimensionality disagrees with the query are
// skipped rather than failing the call (mixed model-version vectors may
// coexist after a partial reindex); the skip count is returned alongside.
func Rank(query []float32, candidates []domain.Embedding, topK int) ([]recall.Result, int) {
	scored := make([]recall.Result, 0, len(candidates))
	skipped := 0

	for i := range candidates {
		c := &candidates[i]
		if len(c.Vector) != len(query) {
			skipped++
			continue
		}
		scored = append(scored, recall.NewResult(c.ItemType, c.ItemID, Cosine(query, c.Vector), ""))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, skipped
}
