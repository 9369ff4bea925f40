package dto

// ListOptions carries the shared sort/paginate inputs of every list
// endpoint. Sort fields are validated against per-entity allow-lists by
// the services; Dir is normalized there too.
type ListOptions struct {
	Sort  string
	Dir   string
	Page  int
	Limit int
}

// Offset converts 1-based pages to a row offset; page 1 yields 0.
func (o ListOptions) Offset() int {
	page := o.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * o.Limit
}

// ListMeta describes one page of results.
type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewListMeta derives pagination metadata from a total row count.
func NewListMeta(total int64, opts ListOptions) ListMeta {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	meta := ListMeta{Total: total, Page: page, Limit: opts.Limit}
	if opts.Limit > 0 {
		meta.TotalPages = int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	}
	return meta
}
