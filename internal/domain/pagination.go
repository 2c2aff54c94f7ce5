package domain

// MaxPageSize caps every paginated query.
const MaxPageSize = 100

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns PageSize clamped to [1, MaxPageSize].
func (p PaginationParams) Limit() int {
	switch {
	case p.PageSize < 1:
		return 1
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}
