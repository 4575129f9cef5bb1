package model

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func NewPageRequest(page, size int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// MaxPage is the largest page for which page*size still fits in an int, so
// the offset and the end of the window never overflow.
func MaxPage(size int) int {
	if size < 1 {
		size = 1
	}
	return math.MaxInt / size
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Size
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	Total       int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPage derives the pagination block from the request and the total number
// of rows matching the same filter that produced items.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}
	return Page[T]{
		Items: items,
		Pagination: Pagination{
			CurrentPage: req.Page,
			TotalPages:  totalPages,
			Total:       total,
			HasNext:     req.Offset()+req.Size < total,
			HasPrev:     req.Page > 1,
		},
	}
}
