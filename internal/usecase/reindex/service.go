// Package reindex rebuilds and verifies the embedding table from source rows.
package reindex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
	"github.com/kailas-cloud/recall/internal/metrics"
)

// Report summarizes a rebuild run.
type Report struct {
	Attempted int
	Succeeded int
	Failed    int
	Cleared   int
	ByType    map[item.Type]TypeReport
}

// TypeReport is the per-type slice of a rebuild run.
type TypeReport struct {
	Attempted int
	Succeeded int
	Failed    int
}

// VerifyReport summarizes an index consistency check.
type VerifyReport struct {
	Checked     int
	Missing     int
	DimMismatch int
	MissingIDs  []string
}

// Service rebuilds embeddings from source rows, one item at a time.
type Service struct {
	sources SourceReader
	vectors VectorStore
	embed   Embedder
	model   string
	dims    int
	logger  *zap.Logger
}

// New creates a reindex service. dims is the expected vector width used by
// Verify.
func New(sources SourceReader, vectors VectorStore, embed Embedder, model string, dims int, logger *zap.Logger) *Service {
	return &Service{
		sources: sources,
		vectors: vectors,
		embed:   embed,
		model:   model,
		dims:    dims,
		logger:  logger,
	}
}

// Rebuild re-embeds every source row of the given types. Items are processed
// sequentially so a single run cannot flood the embedding provider. A failed
// item is counted and skipped; the run keeps going.
func (s *Service) Rebuild(ctx context.Context, types []item.Type, clearFirst bool) (Report, error) {
	if len(types) == 0 {
		types = item.All()
	}
	report := Report{ByType: make(map[item.Type]TypeReport)}

	if clearFirst {
		for _, t := range types {
			t := t
			removed, err := s.vectors.Clear(ctx, &t)
			if err != nil {
				return report, fmt.Errorf("clear embeddings for %s: %w", t, err)
			}
			report.Cleared += removed
		}
	}

	for _, t := range types {
		tr, err := s.rebuildType(ctx, t)
		report.Attempted += tr.Attempted
		report.Succeeded += tr.Succeeded
		report.Failed += tr.Failed
		report.ByType[t] = tr
		if err != nil {
			return report, err
		}
	}

	s.logger.Info("Reindex complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("cleared", report.Cleared),
	)
	return report, nil
}

func (s *Service) rebuildType(ctx context.Context, t item.Type) (TypeReport, error) {
	ids, err := s.sources.ListIDs(ctx, t)
	if err != nil {
		return TypeReport{}, fmt.Errorf("list %s ids: %w", t, err)
	}

	var tr TypeReport
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return tr, fmt.Errorf("reindex interrupted: %w", err)
		}
		tr.Attempted++
		if err := s.rebuildItem(ctx, t, id); err != nil {
			tr.Failed++
			metrics.ReindexItemsTotal.WithLabelValues(t.String(), "failed").Inc()
			s.logger.Warn("Reindex item failed",
				zap.String("item_type", t.String()),
				zap.String("item_id", id),
				zap.Error(err),
			)
			continue
		}
		tr.Succeeded++
		metrics.ReindexItemsTotal.WithLabelValues(t.String(), "succeeded").Inc()
	}
	return tr, nil
}

func (s *Service) rebuildItem(ctx context.Context, t item.Type, id string) error {
	text, err := s.sources.GetText(ctx, t, id)
	if err != nil {
		return fmt.Errorf("read source text: %w", err)
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed text: %w", err)
	}
	rec := domain.Embedding{
		ItemType: t,
		ItemID:   id,
		Vector:   res.Embedding,
		Model:    s.model,
	}
	if err := s.vectors.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Verify walks the source rows of the given types and reports items whose
// embedding is absent or has an unexpected dimensionality. It never mutates
// the index.
func (s *Service) Verify(ctx context.Context, types []item.Type) (VerifyReport, error) {
	if len(types) == 0 {
		types = item.All()
	}
	var report VerifyReport

	for _, t := range types {
		ids, err := s.sources.ListIDs(ctx, t)
		if err != nil {
			return report, fmt.Errorf("list %s ids: %w", t, err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("verify interrupted: %w", err)
			}
			report.Checked++
			vec, err := s.vectors.Get(ctx, t, id)
			if errors.Is(err, domain.ErrNotFound) {
				report.Missing++
				report.MissingIDs = append(report.MissingIDs, t.String()+"/"+id)
				continue
			}
			if err != nil {
				return report, fmt.Errorf("read embedding: %w", err)
			}
			if len(vec) != s.dims {
				report.DimMismatch++
			}
		}
	}
	return report, nil
}
