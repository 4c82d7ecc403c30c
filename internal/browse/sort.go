package browse

// SortState tracks the active listing order.
type SortState struct {
	Column     string
	Descending bool
}

// DefaultSort is newest first, the useful default for every column.
func DefaultSort() SortState {
	return SortState{Column: "created_at", Descending: true}
}

// Toggle applies a header click: the active column flips direction, a new
// column resets to descending. Any sort change invalidates the page position,
// so callers must reset the offset to zero alongside.
func (s SortState) Toggle(column string) SortState {
	if column == s.Column {
		return SortState{Column: column, Descending: !s.Descending}
	}
	return SortState{Column: column, Descending: true}
}

// Direction returns the wire value for the current direction.
func (s SortState) Direction() string {
	if s.Descending {
		return "desc"
	}
	return "asc"
}
