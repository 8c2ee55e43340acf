package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	"github.com/zatekoja/adminconsole/internal/query/cache"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// ListReader is the type-erased view of a list the HTTP layer works with
type ListReader interface {
	ListID() string
	ParseOptions() entities.ParseOptions
	Read(ctx context.Context, filter entities.FilterState) (interface{}, cache.Outcome, error)
	Invalidate() int
}

// ListServiceConfig configures a ListService
type ListServiceConfig struct {
	ListID          string
	ParseOptions    entities.ParseOptions
	SearchMinLength int
}

// ListService serves one list through the shared result cache
type ListService[T any] struct {
	cfg     ListServiceConfig
	fetcher providers.Fetcher[T]
	cache   *cache.ResultCache[T]
	metrics *observability.Metrics
}

// NewListService creates a list service
func NewListService[T any](cfg ListServiceConfig, fetcher providers.Fetcher[T], resultCache *cache.ResultCache[T], metrics *observability.Metrics) *ListService[T] {
	if cfg.SearchMinLength <= 0 {
		cfg.SearchMinLength = 3
	}
	return &ListService[T]{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   resultCache,
		metrics: metrics,
	}
}

// ListID returns the list served
func (s *ListService[T]) ListID() string {
	return s.cfg.ListID
}

// ParseOptions returns how requests for this list are parsed
func (s *ListService[T]) ParseOptions() entities.ParseOptions {
	return s.cfg.ParseOptions
}

// GetPage returns the page for filter. A search shorter than the minimum is
// rejected without touching the cache or the database.
func (s *ListService[T]) GetPage(ctx context.Context, filter entities.FilterState) (entities.Page[T], cache.Outcome, error) {
	ctx, span := observability.StartSpan(ctx, "ListService.GetPage")
	defer span.End()

	filter = filter.Normalized()
	if term := strings.TrimSpace(filter.Search); term != "" && utf8.RuneCountInString(term) < s.cfg.SearchMinLength {
		return entities.Page[T]{}, cache.OutcomeMiss, apperrors.NewSearchTooShortError(s.cfg.SearchMinLength)
	}

	key := querykey.Build(s.cfg.ListID, filter)
	observability.SetSpanAttributes(span,
		attribute.String("list.id", s.cfg.ListID),
		attribute.String("list.key", key.String()),
	)

	page, outcome, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (entities.Page[T], error) {
		start := time.Now()
		page, err := s.fetcher.Fetch(ctx, filter)
		result := "success"
		switch {
		case apperrors.IsCanceled(err):
			result = "canceled"
		case err != nil:
			result = string(apperrors.Classify(err).Type)
		}
		observability.RecordFetchMetric(ctx, s.metrics, s.cfg.ListID, result, time.Since(start))
		if err != nil {
			return entities.Page[T]{}, err
		}
		return page.Normalized(filter), nil
	})

	if apperrors.IsCanceled(err) {
		// the caller left; the shared load still fills the cache
		observability.LoggerFromContext(ctx).Debug().Str("list_id", s.cfg.ListID).Msg("list read canceled")
		return entities.Page[T]{}, outcome, err
	}

	switch outcome {
	case cache.OutcomeHit:
		observability.RecordCacheHit(ctx, s.metrics, s.cfg.ListID)
	case cache.OutcomeStale:
		observability.RecordCacheStale(ctx, s.metrics, s.cfg.ListID)
	default:
		observability.RecordCacheMiss(ctx, s.metrics, s.cfg.ListID)
	}

	if err != nil {
		observability.RecordError(span, err)
		return entities.Page[T]{}, outcome, err
	}
	return page, outcome, nil
}

// Read implements ListReader
func (s *ListService[T]) Read(ctx context.Context, filter entities.FilterState) (interface{}, cache.Outcome, error) {
	page, outcome, err := s.GetPage(ctx, filter)
	if err != nil {
		return nil, outcome, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, outcome, nil
}

// Invalidate marks every cached page of the list stale in this process
func (s *ListService[T]) Invalidate() int {
	return s.cache.Invalidate(querykey.Prefix(s.cfg.ListID))
}
