package repository

import "math"

const (
	// DefaultPageSize is used when a request omits or zeroes the page size.
	DefaultPageSize = 10
	// MaxPageSize caps any requested page size.
	MaxPageSize = 20
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into a usable range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageMeta describes a page of results.
type PageMeta struct {
	TotalItemCount int64 `json:"totalItemCount"`
	TotalPageCount int   `json:"totalPageCount"`
	PageSize       int   `json:"pageSize"`
	CurrentPage    int   `json:"currentPage"`
}

// NewPageMeta builds metadata for a normalized page and a total row count.
func NewPageMeta(total int64, p Page) PageMeta {
	return PageMeta{
		TotalItemCount: total,
		TotalPageCount: int(math.Ceil(float64(total) / float64(p.Size))),
		PageSize:       p.Size,
		CurrentPage:    p.Number,
	}
}
