package pagination

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/rshade/multiverse/internal/engine"
)

// Pagination defaults and validation limits.
const (
	DefaultPage     = 1
	MinPage         = 1
	MaxPage         = 10000
	DefaultPageSize = engine.DefaultPageSize
	MinPageSize     = 1
	MaxPageSize     = 200
	DefaultSort     = string(engine.SortNone)
)

// Common validation errors.
var (
	ErrInvalidPage          = errors.New("page must be >= 1")
	ErrPageTooLarge         = fmt.Errorf("page must be <= %d", MaxPage)
	ErrInvalidPageSize      = fmt.Errorf("page-size must be between %d and %d", MinPageSize, MaxPageSize)
	ErrPageSizeWithoutCrawl = errors.New("--page-size requires --all-pages; server pages are fixed at 20")
)

// PaginationParams holds the CLI paging flags.
//
// Without AllPages the page number is passed to the server, which pages in
// fixed blocks of 20. With AllPages every server page is fetched and the
// filtered, sorted result is paged locally with PageSize.
//
//nolint:revive // PaginationParams is the canonical name for this exported type.
type PaginationParams struct {
	// Page is the 1-based page number.
	Page int

	// PageSize is the client-side page size (AllPages mode only).
	PageSize int

	// AllPages switches to client-side pagination over the full crawl.
	AllPages bool

	// Sort is the raw --sort value.
	Sort string
}

// NewPaginationParams creates a PaginationParams with default values.
func NewPaginationParams() *PaginationParams {
	return &PaginationParams{
		Page:     DefaultPage,
		PageSize: 0,
		Sort:     DefaultSort,
	}
}

// AddFlags registers the paging flags on fs.
func (p *PaginationParams) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&p.Page, "page", DefaultPage, "Page number (1-based)")
	fs.IntVar(&p.PageSize, "page-size", 0,
		fmt.Sprintf("Client-side page size with --all-pages (default %d)", DefaultPageSize))
	fs.BoolVar(&p.AllPages, "all-pages", false,
		"Fetch every server page, then filter, sort and paginate locally")
	fs.StringVar(&p.Sort, "sort", DefaultSort, "Sort order: none, alphabetical, gender")
}

// Validate checks that the flags are in range and consistent (value receiver).
func (p PaginationParams) Validate() error {
	if p.Page < MinPage {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.Page > MaxPage {
		return fmt.Errorf("%w: got %d", ErrPageTooLarge, p.Page)
	}
	if p.PageSize != 0 && !p.AllPages {
		return ErrPageSizeWithoutCrawl
	}
	if p.PageSize != 0 && (p.PageSize < MinPageSize || p.PageSize > MaxPageSize) {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	if _, err := ParseSort(p.Sort); err != nil {
		return err
	}
	return nil
}

// Mode returns the aggregation mode selected by the flags.
func (p PaginationParams) Mode() engine.Mode {
	if p.AllPages {
		return engine.ModeAll
	}
	return engine.ModeServer
}

// EffectivePageSize returns the page size results are displayed with.
func (p PaginationParams) EffectivePageSize() int {
	if p.AllPages && p.PageSize > 0 {
		return p.PageSize
	}
	return DefaultPageSize
}

// SortKey returns the parsed sort key, SortNone when invalid.
func (p PaginationParams) SortKey() engine.SortKey {
	key, err := ParseSort(p.Sort)
	if err != nil {
		return engine.SortNone
	}
	return key
}
