// Package recall defines the query and result aggregates for similarity
// recall.
package recall

import (
	"fmt"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// Query defaults and bounds.
const (
	DefaultTopK = 3
	MaxTopK     = 100
)

// Kind tags which query variant is populated.
type Kind string

// Query kinds, in resolution precedence order.
const (
	KindItem   Kind = "item"
	KindText   Kind = "text"
	KindVector Kind = "vector"
)

// Query is a validated recall query: exactly one variant is populated.
type Query struct {
	kind       Kind
	itemType   item.Type
	itemID     string
	text       string
	vector     []float32
	topK       int
	typeFilter *item.Type
}

// ByItem builds a query that resolves the stored vector of an existing record.
func ByItem(itemType item.Type, itemID string, topK int, typeFilter *item.Type) (Query, error) {
	if itemID == "" {
		return Query{}, fmt.Errorf("item_id is required: %w", domain.ErrValidation)
	}
	q := Query{kind: KindItem, itemType: itemType, itemID: itemID, typeFilter: typeFilter}
	return q.withTopK(topK)
}

// ByText builds a query that embeds raw text via the embedding capability.
func ByText(text string, topK int, typeFilter *item.Type) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("query text is required: %w", domain.ErrValidation)
	}
	q := Query{kind: KindText, text: text, typeFilter: typeFilter}
	return q.withTopK(topK)
}

// ByVector builds a query from an explicit vector.
func ByVector(vector []float32, topK int, typeFilter *item.Type) (Query, error) {
	if err := domain.ValidateVector(vector); err != nil {
		return Query{}, err
	}
	q := Query{kind: KindVector, vector: vector, typeFilter: typeFilter}
	return q.withTopK(topK)
}

func (q Query) withTopK(topK int) (Query, error) {
	if topK < 0 {
		return Query{}, fmt.Errorf("top_k must be positive: %w", domain.ErrValidation)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	q.topK = topK
	return q, nil
}

// Kind returns the populated variant tag.
func (q *Query) Kind() Kind { return q.kind }

// ItemType returns the queried item type (KindItem only).
func (q *Query) ItemType() item.Type { return q.itemType }

// ItemID returns the queried item identity (KindItem only).
func (q *Query) ItemID() string { return q.itemID }

// Text returns the raw query text (KindText only).
func (q *Query) Text() string { return q.text }

// Vector returns the explicit query vector (KindVector only).
func (q *Query) Vector() []float32 { return q.vector }

// TopK returns the normalized result limit.
func (q *Query) TopK() int { return q.topK }

// TypeFilter returns the optional candidate type filter.
func (q *Query) TypeFilter() *item.Type { return q.typeFilter }
