package pagination

// Pagination is a page/page_size request window.
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// PageInfo describes the returned window and the size of the full result set.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps page to >= 1 and page size into [1, maxSize],
// substituting defaultSize when no size was requested.
func (p Pagination) Normalize(defaultSize, maxSize int) Pagination {
	if defaultSize < 1 {
		defaultSize = 1
	}
	if maxSize < defaultSize {
		maxSize = defaultSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = defaultSize
	case p.PageSize > maxSize:
		p.PageSize = maxSize
	}
	return p
}

func (p Pagination) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) Limit() int {
	return p.PageSize
}

// BuildPageInfo assumes p has been normalized.
func BuildPageInfo(p Pagination, total int64) PageInfo {
	totalPages := 0
	if p.PageSize > 0 && total > 0 {
		totalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return PageInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
