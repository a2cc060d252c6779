// Package recall embeds the similarity recall engine in-process: an
// embedded single-file vector store with cosine top-K retrieval, without
// running the HTTP server.
package recall

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/db/sqlite"
	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
	domrecall "github.com/kailas-cloud/recall/internal/domain/recall"
	embeddingrepo "github.com/kailas-cloud/recall/internal/repository/embedding"
	sourcerepo "github.com/kailas-cloud/recall/internal/repository/source"
	recalluc "github.com/kailas-cloud/recall/internal/usecase/recall"
	reindexuc "github.com/kailas-cloud/recall/internal/usecase/reindex"
	storeuc "github.com/kailas-cloud/recall/internal/usecase/store"
)

// Sentinel errors surfaced by the client. Match with errors.Is.
var (
	ErrNotFound   = domain.ErrNotFound
	ErrValidation = domain.ErrValidation
)

const (
	defaultDBPath       = "data/recall.db"
	defaultDimensions   = 1536
	defaultEmbedTimeout = 30 * time.Second
)

// Embedder vectorizes text. Implementations typically call an external
// embedding API.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one embedding with token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Result is a single recall match.
type Result struct {
	ItemType string
	ItemID   string
	Score    float64
	Text     string
}

// SearchResponse is an ordered recall result set.
type SearchResponse struct {
	Results    []Result
	QueryType  string
	TotalFound int
	Degraded   bool
}

// Stats reports the stored embedding population.
type Stats struct {
	Total  int
	ByType map[string]int
}

// ReindexReport summarizes a rebuild run.
type ReindexReport struct {
	Attempted int
	Succeeded int
	Failed    int
	Cleared   int
}

// VerifyReport summarizes an index consistency check.
type VerifyReport struct {
	Checked     int
	Missing     int
	DimMismatch int
	MissingIDs  []string
}

// Client is the embedded recall engine entry point.
type Client struct {
	store      *sqlite.Store
	recallSvc  *recalluc.Service
	storeSvc   *storeuc.Service
	reindexSvc *reindexuc.Service
	sources    *sourcerepo.Repo
}

// New opens the embedded database and wires the recall engine.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dbPath:       defaultDBPath,
		dimensions:   defaultDimensions,
		embedTimeout: defaultEmbedTimeout,
		fallback:     true,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := sqlite.Open(cfg.dbPath)
	if err != nil {
		return nil, fmt.Errorf("recall: open database: %w", err)
	}

	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder, timeout: cfg.embedTimeout}
	}

	vectors := embeddingrepo.New(store.DB())
	sources := sourcerepo.New(store.DB())

	return &Client{
		store: store,
		recallSvc: recalluc.New(
			vectors, sources, domEmb, cfg.dimensions, cfg.fallback, cfg.logger,
		),
		storeSvc: storeuc.New(vectors, domEmb, cfg.model, cfg.logger),
		reindexSvc: reindexuc.New(
			sources, vectors, domEmb, cfg.model, cfg.dimensions, cfg.logger,
		),
		sources: sources,
	}, nil
}

// Close releases the database.
func (c *Client) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("recall: close database: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("recall: ping: %w", err)
	}
	return nil
}

// SearchByItem finds the items most similar to a stored item. The query
// item itself is excluded from results. typeFilter narrows candidates to one
// item type; pass "" for all types. topK 0 means the default of 3.
func (c *Client) SearchByItem(
	ctx context.Context, itemType, itemID string, topK int, typeFilter string,
) (SearchResponse, error) {
	t, err := parseItemType(itemType)
	if err != nil {
		return SearchResponse{}, err
	}
	filter, err := parseFilter(typeFilter)
	if err != nil {
		return SearchResponse{}, err
	}
	q, err := domrecall.ByItem(t, itemID, topK, filter)
	if err != nil {
		return SearchResponse{}, err
	}
	return c.search(ctx, q)
}

// SearchByText embeds the text and finds the most similar items. If the
// embedder is unavailable and degraded fallback is enabled, the response is
// flagged Degraded and scored against a pseudo-random vector.
func (c *Client) SearchByText(
	ctx context.Context, text string, topK int, typeFilter string,
) (SearchResponse, error) {
	filter, err := parseFilter(typeFilter)
	if err != nil {
		return SearchResponse{}, err
	}
	q, err := domrecall.ByText(text, topK, filter)
	if err != nil {
		return SearchResponse{}, err
	}
	return c.search(ctx, q)
}

// SearchByVector finds the items most similar to an explicit vector.
func (c *Client) SearchByVector(
	ctx context.Context, vector []float32, topK int, typeFilter string,
) (SearchResponse, error) {
	filter, err := parseFilter(typeFilter)
	if err != nil {
		return SearchResponse{}, err
	}
	q, err := domrecall.ByVector(vector, topK, filter)
	if err != nil {
		return SearchResponse{}, err
	}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, q domrecall.Query) (SearchResponse, error) {
	resp, err := c.recallSvc.Search(ctx, q)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("recall: search: %w", err)
	}

	results := make([]Result, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = Result{
			ItemType: r.ItemType().String(),
			ItemID:   r.ItemID(),
			Score:    r.Score(),
			Text:     r.Text(),
		}
	}
	return SearchResponse{
		Results:    results,
		QueryType:  string(resp.QueryType),
		TotalFound: resp.TotalFound,
		Degraded:   resp.Degraded,
	}, nil
}

// SaveSource stores the source text for an item. Source rows feed result
// hydration and reindexing.
func (c *Client) SaveSource(ctx context.Context, itemType, itemID, text string) error {
	t, err := parseItemType(itemType)
	if err != nil {
		return err
	}
	if err := c.sources.Put(ctx, t, itemID, text); err != nil {
		return fmt.Errorf("recall: save source: %w", err)
	}
	return nil
}

// StoreText embeds text and upserts the resulting vector for the item.
func (c *Client) StoreText(ctx context.Context, itemType, itemID, text string) error {
	t, err := parseItemType(itemType)
	if err != nil {
		return err
	}
	return c.storeSvc.StoreText(ctx, t, itemID, text)
}

// StoreVector upserts an explicit vector for the item.
func (c *Client) StoreVector(ctx context.Context, itemType, itemID string, vector []float32) error {
	t, err := parseItemType(itemType)
	if err != nil {
		return err
	}
	return c.storeSvc.StoreVector(ctx, t, itemID, vector)
}

// Reindex re-embeds source rows of the given types (all when empty),
// optionally clearing existing vectors first.
func (c *Client) Reindex(ctx context.Context, types []string, clear bool) (ReindexReport, error) {
	parsed, err := parseTypes(types)
	if err != nil {
		return ReindexReport{}, err
	}
	report, err := c.reindexSvc.Rebuild(ctx, parsed, clear)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("recall: reindex: %w", err)
	}
	return ReindexReport{
		Attempted: report.Attempted,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Cleared:   report.Cleared,
	}, nil
}

// VerifyIndex reports source rows whose embedding is missing or has an
// unexpected dimensionality. It never mutates the index.
func (c *Client) VerifyIndex(ctx context.Context, types []string) (VerifyReport, error) {
	parsed, err := parseTypes(types)
	if err != nil {
		return VerifyReport{}, err
	}
	report, err := c.reindexSvc.Verify(ctx, parsed)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("recall: verify index: %w", err)
	}
	return VerifyReport{
		Checked:     report.Checked,
		Missing:     report.Missing,
		DimMismatch: report.DimMismatch,
		MissingIDs:  report.MissingIDs,
	}, nil
}

// GetStats returns the total and per-type embedding counts.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	stats, err := c.storeSvc.GetStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("recall: stats: %w", err)
	}
	byType := make(map[string]int, len(stats.ByType))
	for t, n := range stats.ByType {
		byType[t.String()] = n
	}
	return Stats{Total: stats.Total, ByType: byType}, nil
}

func parseFilter(typeFilter string) (*item.Type, error) {
	if typeFilter == "" {
		return nil, nil
	}
	t, err := parseItemType(typeFilter)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseItemType maps an unknown tag onto ErrValidation.
func parseItemType(raw string) (item.Type, error) {
	t, err := item.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unknown item type %q: %w", raw, domain.ErrValidation)
	}
	return t, nil
}

func parseTypes(types []string) ([]item.Type, error) {
	out := make([]item.Type, 0, len(types))
	for _, raw := range types {
		t, err := parseItemType(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// embedderAdapter wraps the public Embedder to satisfy internal
// domain.Embedder and bounds each call with the configured deadline. The
// embedder is an external dependency; a stalled one must never hang a
// library caller.
type embedderAdapter struct {
	inner   Embedder
	timeout time.Duration
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails every Embed call (used when no embedder configured).
// Text searches then degrade or fail depending on the fallback setting.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"recall: embedder not configured (use WithEmbedder): %w",
		domain.ErrEmbeddingProviderError,
	)
}
