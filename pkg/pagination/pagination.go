package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// PageRequest represents a client request for a page of data with an optional search term.
type PageRequest struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Search   *string `json:"search,omitempty"`
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
// Page is capped so that Offset never overflows.
func (r *PageRequest) Normalize(cfg Config) {
	r.PageSize = cfg.Clamp(r.PageSize)
	if r.Page < 1 {
		r.Page = 1
	}
	if limit := math.MaxInt / max(r.PageSize, 1); r.Page > limit {
		r.Page = limit
	}
}

// Offset calculates the number of records to skip based on page and page size.
// It saturates at math.MaxInt instead of overflowing.
func (r *PageRequest) Offset() int {
	if r.Page <= 1 || r.PageSize <= 0 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.PageSize {
		return math.MaxInt
	}
	return (r.Page - 1) * r.PageSize
}

// SearchTerm returns the trimmed search term, or "" when none was given.
func (r *PageRequest) SearchTerm() string {
	if r.Search == nil {
		return ""
	}
	return strings.TrimSpace(*r.Search)
}

// PageRequestFromQuery parses pagination parameters from URL query values.
// Supported parameters: page, page_size, search.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	var search *string
	if s := values.Get("search"); s != "" {
		search = &s
	}

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Paginate returns the requested page of an in-memory collection, preserving
// its order. The request must already be normalized.
func Paginate[T any](items []T, page PageRequest) PageResult[T] {
	total := len(items)
	start := min(page.Offset(), total)
	end := start + min(max(page.PageSize, 0), total-start)

	data := make([]T, end-start)
	copy(data, items[start:end])

	return NewPageResult(data, total, page.Page, page.PageSize)
}
