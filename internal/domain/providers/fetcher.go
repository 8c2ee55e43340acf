package providers

import (
	"context"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// Fetcher executes one list query. Implementations return an *errors.AppError
// (or an error that errors.Classify understands) on failure, and the context
// error unchanged when the request was canceled.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error)
}

// FetcherFunc adapts a plain function to Fetcher
type FetcherFunc[T any] func(ctx context.Context, filter entities.FilterState) (entities.Page[T], error)

// Fetch calls f
func (f FetcherFunc[T]) Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	return f(ctx, filter)
}
