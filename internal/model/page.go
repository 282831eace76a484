package model

// CursorPage is one page of a cursor paginated listing. Content is ordered by
// ascending id and NextCursor is set only when HasNext is true and Content is
// not empty.
type CursorPage[T any] struct {
	Content    []T    `json:"content"`
	HasNext    bool   `json:"has_next"`
	NextCursor *int64 `json:"next_cursor"`
	Size       int    `json:"size"`
	First      bool   `json:"first"`
}

// Empty reports whether the page holds no content.
func (p CursorPage[T]) Empty() bool {
	return len(p.Content) == 0
}
