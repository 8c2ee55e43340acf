// Package local pages, filters and sorts a collection that is already fully
// loaded in memory. Its totals are counted here and marked as such; they are
// never mixed with totals reported by a server.
package local

import (
	"context"
	"sort"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// Matcher reports whether item satisfies every filter except pagination
type Matcher[T any] func(item T, filter entities.FilterState) bool

// Less orders two items for the given sort field
type Less[T any] func(a, b T, field string) bool

// Fetcher serves pages out of an in-memory slice
type Fetcher[T any] struct {
	items []T
	match Matcher[T]
	less  Less[T]
}

// NewFetcher creates a fetcher over items. match and less may be nil.
func NewFetcher[T any](items []T, match Matcher[T], less Less[T]) *Fetcher[T] {
	return &Fetcher[T]{items: items, match: match, less: less}
}

// Fetch implements providers.Fetcher
func (f *Fetcher[T]) Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	if err := ctx.Err(); err != nil {
		return entities.Page[T]{}, err
	}

	filter = filter.Normalized()
	matched := make([]T, 0, len(f.items))
	for _, item := range f.items {
		if f.match == nil || f.match(item, filter) {
			matched = append(matched, item)
		}
	}

	if f.less != nil && filter.Sort.Field != "" {
		desc := filter.Sort.Direction == entities.SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return f.less(matched[j], matched[i], filter.Sort.Field)
			}
			return f.less(matched[i], matched[j], filter.Sort.Field)
		})
	}

	pg := entities.NewPagination(filter.Page, filter.PageSize, len(matched), entities.OriginLocal)
	start := (pg.Page - 1) * pg.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+pg.PageSize, len(matched))

	return entities.Page[T]{
		Items:      matched[start:end],
		Pagination: pg,
	}, nil
}
