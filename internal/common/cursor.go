package common

import (
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is one slice of an id-ordered collection. NextCursor is nil when the
// page came back short, which means the collection is exhausted.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
	Limit      int     `json:"limit"`
}

// EncodeCursor returns the base64 encoding of the JSON serialised id.
func EncodeCursor(id int) string {
	b, _ := json.Marshal(id)
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeCursor is the inverse of EncodeCursor. An empty cursor means the first
// page and decodes to nil.
func DecodeCursor(cursor string) (*int, error) {
	if cursor == "" {
		return nil, nil
	}

	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var id *int
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, ErrInvalidCursor
	}

	if id == nil || *id < 0 {
		return nil, ErrInvalidCursor
	}

	return id, nil
}

// NormalizeLimit clamps limit into [1, MaxPageLimit], using DefaultPageLimit
// when no positive limit was requested.
func NormalizeLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultPageLimit
	case limit > MaxPageLimit:
		return MaxPageLimit
	default:
		return limit
	}
}

// NewPage builds the page for items fetched with the given limit. A full page
// yields a cursor for its last item even if nothing follows it.
func NewPage[T any](items []T, limit int, idOf func(T) int) Page[T] {
	if items == nil {
		items = []T{}
	}

	page := Page[T]{Items: items, Limit: limit}
	if len(items) > 0 && len(items) == limit {
		next := EncodeCursor(idOf(items[len(items)-1]))
		page.NextCursor = &next
	}

	return page
}
