package chi

// Wire types for the JSON API.

type itemRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type searchRequest struct {
	SummaryID   string    `json:"summary_id,omitempty"`
	Item        *itemRef  `json:"item,omitempty"`
	MessageText string    `json:"message_text,omitempty"`
	Vector      []float32 `json:"vector,omitempty"`
	TopK        int       `json:"top_k,omitempty"`
	ItemType    string    `json:"item_type,omitempty"`
}

type searchResultItem struct {
	ItemType string  `json:"item_type"`
	ItemID   string  `json:"item_id"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

type searchResponse struct {
	Related    []searchResultItem `json:"related"`
	QueryType  string             `json:"query_type"`
	TotalFound int                `json:"total_found"`
	Degraded   bool               `json:"degraded,omitempty"`
	Skipped    int                `json:"skipped,omitempty"`
}

type storeRequest struct {
	ItemType string    `json:"item_type"`
	ItemID   string    `json:"item_id"`
	Text     string    `json:"text,omitempty"`
	Vector   []float32 `json:"vector,omitempty"`
}

type storeResponse struct {
	Status string `json:"status"`
}

type statsResponse struct {
	TotalEmbeddings int            `json:"total_embeddings"`
	ByType          map[string]int `json:"by_type"`
}

type reindexRequest struct {
	Types      []string `json:"types,omitempty"`
	Clear      bool     `json:"clear,omitempty"`
	VerifyOnly bool     `json:"verify_only,omitempty"`
}

type reindexResponse struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cleared   int `json:"cleared,omitempty"`
}

type verifyResponse struct {
	Checked     int      `json:"checked"`
	Missing     int      `json:"missing"`
	DimMismatch int      `json:"dim_mismatch"`
	MissingIDs  []string `json:"missing_ids,omitempty"`
}

type usageResponse struct {
	Period          string `json:"period"`
	PeriodStartAt   string `json:"period_start_at,omitempty"`
	PeriodEndAt     string `json:"period_end_at,omitempty"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"is_exhausted"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced in responses.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeNotFound             = "not_found"
	codeRateLimited          = "rate_limited"
	codeBudgetExceeded       = "budget_exceeded"
	codeEmbeddingProviderErr = "embedding_provider_error"
	codeInternalError        = "internal_error"
	codeUnauthorized         = "unauthorized"
)
