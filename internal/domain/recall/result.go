package recall

import "github.com/kailas-cloud/recall/internal/domain/item"

// Result is a single recall hit.
type Result struct {
	itemType item.Type
	itemID   string
	score    float64
	text     string
}

// NewResult creates a recall result.
func NewResult(itemType item.Type, itemID string, score float64, text string) Result {
	return Result{itemType: itemType, itemID: itemID, score: score, text: text}
}

// ItemType returns the matched record's item type.
func (r *Result) ItemType() item.Type { return r.itemType }

// ItemID returns the matched record's identity.
func (r *Result) ItemID() string { return r.itemID }

// Score returns the cosine similarity against the query vector.
func (r *Result) Score() float64 { return r.score }

// Text returns the denormalized source text, hydrated at response time.
func (r *Result) Text() string { return r.text }

// WithText returns a copy with the source text set.
func (r Result) WithText(text string) Result {
	r.text = text
	return r
}

// Response is the outcome of a recall search.
type Response struct {
	Results    []Result
	QueryType  Kind
	TotalFound int
	// Degraded is true when the embedding capability was unavailable and a
	// pseudo-random fallback vector served the query.
	Degraded bool
	// Skipped counts candidates dropped for vector dimension mismatch.
	Skipped int
}
