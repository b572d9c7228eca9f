package pagination

import (
	"github.com/rshade/multiverse/internal/engine"
)

// PaginationMeta contains metadata about a paginated listing.
//
//nolint:revive // PaginationMeta is the canonical name for this exported type.
type PaginationMeta struct {
	CurrentPage int  `json:"current_page" yaml:"current_page"`
	PageSize    int  `json:"page_size"    yaml:"page_size"`
	TotalPages  int  `json:"total_pages"  yaml:"total_pages"`
	TotalItems  int  `json:"total_items"  yaml:"total_items"`
	HasPrevious bool `json:"has_previous" yaml:"has_previous"`
	HasNext     bool `json:"has_next"     yaml:"has_next"`

	// Partial is set when the listing was built from an incomplete crawl.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// NewPaginationMeta creates pagination metadata for a view.
func NewPaginationMeta(view engine.View) PaginationMeta {
	currentPage := view.Page
	if currentPage < 1 {
		currentPage = 1
	}

	pageSize := view.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	return PaginationMeta{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalPages:  view.TotalPages,
		TotalItems:  view.TotalCount,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < view.TotalPages,
		Partial:     view.Partial,
	}
}
