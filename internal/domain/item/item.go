// Package item defines the closed set of source entity classes that can own
// an embedding.
package item

import "fmt"

// Type identifies the source entity class of an embedding record.
type Type string

// Known item types. Adding a new source entity class means adding a constant
// here and extending All.
const (
	Summary  Type = "summary"
	Task     Type = "task"
	Response Type = "response"
)

// All lists every valid item type, in a fixed order used for stable
// iteration (reindex, stats).
func All() []Type {
	return []Type{Summary, Task, Response}
}

// Parse validates a raw tag against the known item types.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case Summary, Task, Response:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// String returns the wire tag.
func (t Type) String() string { return string(t) }
