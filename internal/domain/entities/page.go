package entities

// PaginationOrigin records who computed a page's totals
type PaginationOrigin string

const (
	// OriginServer totals were reported by the server
	OriginServer PaginationOrigin = "server"
	// OriginSynthesized totals were derived from a response that had no pagination block
	OriginSynthesized PaginationOrigin = "synthesized"
	// OriginLocal totals were counted over a fully loaded local collection
	OriginLocal PaginationOrigin = "local"
)

// Pagination describes where a page sits in the full result set
type Pagination struct {
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
	Origin     PaginationOrigin `json:"-"`
}

// Page is one response of a list query
type Page[T any] struct {
	Items      []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages returns max(1, ceil(total/pageSize))
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// NewPagination builds consistent pagination metadata
func NewPagination(page, pageSize, total int, origin PaginationOrigin) Pagination {
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: TotalPages(total, pageSize),
		Origin:     origin,
	}
}

// SynthesizePagination derives pagination for a response that carried none,
// counting only the items that came back
func SynthesizePagination(requested FilterState, itemCount int) Pagination {
	return NewPagination(requested.Page, requested.PageSize, itemCount, OriginSynthesized)
}

// Normalized fills missing pagination fields from the request, recomputes
// TotalPages from Total and drops items beyond the page size
func (p Page[T]) Normalized(requested FilterState) Page[T] {
	pg := p.Pagination
	if pg.PageSize <= 0 {
		pg.PageSize = requested.PageSize
	}
	if pg.Page < 1 {
		pg.Page = requested.Page
	}
	if pg.Origin == "" {
		pg.Origin = OriginServer
	}
	p.Pagination = NewPagination(pg.Page, pg.PageSize, pg.Total, pg.Origin)

	if p.Items == nil {
		p.Items = []T{}
	}
	if pg.PageSize > 0 && len(p.Items) > pg.PageSize {
		p.Items = p.Items[:pg.PageSize]
	}
	return p
}
