// Package pagination implements cursor slices keyed on a strictly increasing
// id. Stores are asked for one row more than the page size; the extra row only
// tells whether another page exists and is never returned.
package pagination

import (
	"fmt"

	"github.com/bwise1/snapguide_api/internal/model"
)

// Request is the cursor and size a caller asked for. A nil Cursor means the
// first page.
type Request struct {
	Cursor *int64
	Size   int
}

func (r Request) Validate() error {
	if r.Size <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", model.ErrInvalidArgument, r.Size)
	}
	if r.Cursor != nil && *r.Cursor < 0 {
		return fmt.Errorf("%w: cursor must not be negative", model.ErrInvalidArgument)
	}
	return nil
}

// Capped lowers Size to model.MaxPageSize. Sizes at or below zero are left
// for Validate to reject.
func (r Request) Capped() Request {
	if r.Size > model.MaxPageSize {
		r.Size = model.MaxPageSize
	}
	return r
}

// Limit is the number of rows to fetch from the store.
func (r Request) Limit() int {
	return r.Size + 1
}

func (r Request) First() bool {
	return r.Cursor == nil
}

// Trim drops the over-fetched row. It reports whether rows held more than
// size entries.
func Trim[T any](rows []T, size int) ([]T, bool) {
	if len(rows) > size {
		return rows[:size], true
	}
	return rows, false
}

// NewPage builds the page envelope. idOf extracts the cursor key of an item.
func NewPage[T any](content []T, hasNext bool, req Request, idOf func(T) int64) model.CursorPage[T] {
	if content == nil {
		content = []T{}
	}

	var next *int64
	if hasNext && len(content) > 0 {
		id := idOf(content[len(content)-1])
		next = &id
	}

	return model.CursorPage[T]{
		Content:    content,
		HasNext:    hasNext,
		NextCursor: next,
		Size:       len(content),
		First:      req.First(),
	}
}
