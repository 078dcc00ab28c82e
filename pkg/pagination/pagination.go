// Package pagination implements page-number based pagination: limit is the
// page size and page is the 1-indexed page number.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromValues extracts pagination parameters from query values, applying
// defaults and clamping limit to MaxLimit.
func FromValues(values url.Values) Params {
	limit, _ := strconv.Atoi(values.Get("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	page, _ := strconv.Atoi(values.Get("page"))
	if page <= 0 {
		page = 1
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the number of records to skip for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Meta is the pagination metadata block of a list response.
type Meta struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
	Limit        int `json:"limit"`
}

// Response wraps a paginated API response.
type Response struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data: data,
		Pagination: Meta{
			CurrentPage:  p.Page,
			TotalPages:   TotalPages(total, p.Limit),
			TotalResults: total,
			Limit:        p.Limit,
		},
	}
}
