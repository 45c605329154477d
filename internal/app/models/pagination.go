package models

// Pagination is the metadata block of a paged response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PageRequest is a normalized page/per_page pair.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps page to >= 1 and per_page to [1, maxPerPage], using def when per_page < 1.
func NewPageRequest(page, perPage, def, maxPerPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = def
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginate builds the metadata for total matching items.
func (p PageRequest) Paginate(total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{Page: p.Page, PerPage: p.PerPage, Total: total, TotalPages: totalPages}
}

// Page is one page of results plus its metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
