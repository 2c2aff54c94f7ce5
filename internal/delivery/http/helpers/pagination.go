package helpers

import (
	"net/http"
	"strconv"

	"eventhub/internal/domain"
)

// Pagination query parameter defaults. Page sizes above domain.MaxPageSize are clamped.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// ParsePagination reads page and page_size from the query string. Invalid or missing values
// fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.PaginationParams{
		Page:     positiveInt(q.Get("page"), DefaultPage),
		PageSize: min(positiveInt(q.Get("page_size"), DefaultPageSize), domain.MaxPageSize),
	}
}

func positiveInt(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 1 {
		return v
	}
	return def
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from params and the total row count.
// TotalPages is ceiling(total / pageSize).
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	size := params.Limit()
	return PaginationMeta{
		Page:       max(params.Page, 1),
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}
}

// Page is the data of a paginated list response.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewPage wraps items with their pagination metadata. A nil slice is encoded as [].
func NewPage[T any](items []T, params domain.PaginationParams, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: NewPaginationMeta(params, total)}
}
