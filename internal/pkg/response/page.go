package response

// PageResponse wraps one page of a list endpoint.
type PageResponse[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// NewPageResponse builds a page. Page numbers start at 1.
func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	// Empty lists render as [] rather than null.
	if items == nil {
		items = []T{}
	}

	return PageResponse[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  page*pageSize < total,
	}
}
