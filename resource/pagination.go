package resource

// Pagination describes the loaded page.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

// NewPagination derives TotalPages; an empty list still has one page.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return Pagination{CurrentPage: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}

// Offset is the index of the first item of the current page.
func (p Pagination) Offset() int { return (p.CurrentPage - 1) * p.PerPage }
