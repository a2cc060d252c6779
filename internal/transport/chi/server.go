// Package chi implements the HTTP transport.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
	domrecall "github.com/kailas-cloud/recall/internal/domain/recall"
	logpkg "github.com/kailas-cloud/recall/internal/logger"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
	recalluc "github.com/kailas-cloud/recall/internal/usecase/recall"
	reindexuc "github.com/kailas-cloud/recall/internal/usecase/reindex"
	storeuc "github.com/kailas-cloud/recall/internal/usecase/store"
	usageuc "github.com/kailas-cloud/recall/internal/usecase/usage"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the recall usecases over HTTP.
type Server struct {
	recall        *recalluc.Service
	store         *storeuc.Service
	reindex       *reindexuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	defaultTopK   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultTopK applies to search
// requests that omit top_k; 0 falls back to the domain default.
func NewServer(
	recall *recalluc.Service,
	store *storeuc.Service,
	reindex *reindexuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	defaultTopK int,
	logger *zap.Logger,
) *Server {
	if defaultTopK <= 0 {
		defaultTopK = domrecall.DefaultTopK
	}
	s := &Server{
		recall:      recall,
		store:       store,
		reindex:     reindex,
		usage:       usage,
		health:      health,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusPaymentRequired, codeBudgetExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/search_similar", s.SearchSimilar)
	r.Post("/api/store_embedding", s.StoreEmbedding)
	r.Get("/api/embeddings/stats", s.EmbeddingStats)
	r.Post("/api/reindex", s.Reindex)
	r.Get("/api/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchSimilar handles POST /api/search_similar.
func (s *Server) SearchSimilar(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := s.queryFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.recall.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromDomain(resp))
}

// queryFromRequest builds a domain query from the wire form. When several
// query forms are supplied, item identity wins over text, text over vector.
// An omitted top_k takes the server's configured default.
func (s *Server) queryFromRequest(req searchRequest) (domrecall.Query, error) {
	typeFilter, err := parseTypeFilter(req.ItemType)
	if err != nil {
		return domrecall.Query{}, err
	}

	topK := req.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}

	switch {
	case req.SummaryID != "":
		return domrecall.ByItem(item.Summary, req.SummaryID, topK, typeFilter)
	case req.Item != nil:
		itemType, err := parseItemType(req.Item.Type)
		if err != nil {
			return domrecall.Query{}, err
		}
		return domrecall.ByItem(itemType, req.Item.ID, topK, typeFilter)
	case req.MessageText != "":
		return domrecall.ByText(req.MessageText, topK, typeFilter)
	case len(req.Vector) > 0:
		return domrecall.ByVector(req.Vector, topK, typeFilter)
	default:
		return domrecall.Query{}, fmt.Errorf(
			"one of summary_id, item, message_text or vector is required: %w", domain.ErrValidation)
	}
}

func parseTypeFilter(raw string) (*item.Type, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseItemType(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseItemType maps an unknown tag onto the validation sentinel so the
// handler chain answers 400 rather than 500.
func parseItemType(raw string) (item.Type, error) {
	t, err := item.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unknown item type %q: %w", raw, domain.ErrValidation)
	}
	return t, nil
}

func searchResponseFromDomain(resp domrecall.Response) searchResponse {
	related := make([]searchResultItem, len(resp.Results))
	for i, res := range resp.Results {
		related[i] = searchResultItem{
			ItemType: res.ItemType().String(),
			ItemID:   res.ItemID(),
			Score:    res.Score(),
			Text:     res.Text(),
		}
	}
	return searchResponse{
		Related:    related,
		QueryType:  string(resp.QueryType),
		TotalFound: resp.TotalFound,
		Degraded:   resp.Degraded,
		Skipped:    resp.Skipped,
	}
}

// StoreEmbedding handles POST /api/store_embedding.
func (s *Server) StoreEmbedding(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	itemType, err := parseItemType(req.ItemType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "item_id is required")
		return
	}

	if len(req.Vector) > 0 {
		err = s.store.StoreVector(r.Context(), itemType, req.ItemID, req.Vector)
	} else {
		err = s.store.StoreText(r.Context(), itemType, req.ItemID, req.Text)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, storeResponse{Status: "stored"})
}

// EmbeddingStats handles GET /api/embeddings/stats.
func (s *Server) EmbeddingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	byType := make(map[string]int, len(stats.ByType))
	for t, n := range stats.ByType {
		byType[t.String()] = n
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalEmbeddings: stats.Total,
		ByType:          byType,
	})
}

// Reindex handles POST /api/reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	types := make([]item.Type, 0, len(req.Types))
	for _, raw := range req.Types {
		t, err := parseItemType(raw)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		types = append(types, t)
	}

	if req.VerifyOnly {
		report, err := s.reindex.Verify(r.Context(), types)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyResponse{
			Checked:     report.Checked,
			Missing:     report.Missing,
			DimMismatch: report.DimMismatch,
			MissingIDs:  report.MissingIDs,
		})
		return
	}

	report, err := s.reindex.Rebuild(r.Context(), types, req.Clear)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{
		Attempted: report.Attempted,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Cleared:   report.Cleared,
	})
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := usageuc.PeriodDay
	if p := r.URL.Query().Get("period"); p != "" {
		period = usageuc.Period(p)
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := usageResponse{
		Period:          string(report.Period),
		TokensLimit:     report.TokensLimit,
		TokensUsed:      report.TokensUsed,
		TokensRemaining: report.TokensRemaining,
		Exhausted:       report.Exhausted,
	}
	if report.PeriodStart > 0 {
		resp.PeriodStartAt = time.UnixMilli(report.PeriodStart).UTC().Format(time.RFC3339)
		resp.PeriodEndAt = time.UnixMilli(report.PeriodEnd).UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrBudgetExceeded,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// requestLogger prefers the request-scoped logger attached by the wide-event
// middleware (it carries the request id), falling back to the server logger.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := logpkg.LoggerFrom(r.Context()); ok {
		return l
	}
	return s.logger
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
