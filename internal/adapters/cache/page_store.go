package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
)

// DefaultPageTTL is how long a page stays in the shared cache
const DefaultPageTTL = 5 * time.Minute

// PageStore keeps list pages as JSON in a CacheProvider. It is the second
// cache level behind the in-process result cache.
type PageStore[T any] struct {
	provider providers.CacheProvider
	ttl      time.Duration
}

// NewPageStore creates a page store
func NewPageStore[T any](provider providers.CacheProvider, ttl time.Duration) *PageStore[T] {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageStore[T]{provider: provider, ttl: ttl}
}

// storedPage keeps the pagination origin, which is not part of the wire format
type storedPage[T any] struct {
	Items      []T                       `json:"data"`
	Pagination entities.Pagination       `json:"pagination"`
	Origin     entities.PaginationOrigin `json:"origin"`
}

// GetPage returns the stored page, or nil when there is none
func (s *PageStore[T]) GetPage(ctx context.Context, key querykey.Key) (*entities.Page[T], error) {
	data, err := s.provider.Get(ctx, key.String())
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stored storedPage[T]
	if err := json.Unmarshal(data, &stored); err != nil {
		// An unreadable entry is dropped and treated as a miss
		_ = s.provider.Delete(ctx, key.String())
		return nil, nil
	}

	stored.Pagination.Origin = stored.Origin
	return &entities.Page[T]{Items: stored.Items, Pagination: stored.Pagination}, nil
}

// SetPage stores a page under key
func (s *PageStore[T]) SetPage(ctx context.Context, key querykey.Key, page entities.Page[T]) error {
	data, err := json.Marshal(storedPage[T]{
		Items:      page.Items,
		Pagination: page.Pagination,
		Origin:     page.Pagination.Origin,
	})
	if err != nil {
		return err
	}
	return s.provider.Set(ctx, key.String(), data, int(s.ttl.Seconds()))
}

// DeleteList removes every stored page of a list
func (s *PageStore[T]) DeleteList(ctx context.Context, listID string) error {
	return s.provider.DeletePattern(ctx, querykey.Prefix(listID)+"*")
}
