package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
)

// CacheInvalidationService marks cached pages stale when a list's data
// changes. Invalidations are broadcast on the event bus so every instance
// drops its in-process pages, and the shared cache is cleared once by the
// instance that received the request.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	source   string

	mu    sync.RWMutex
	lists map[string]ListReader

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewCacheInvalidationService creates a new cache invalidation service. cache may be nil.
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, source string) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		source:   source,
		lists:    make(map[string]ListReader),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Register makes list's pages subject to invalidation
func (s *CacheInvalidationService) Register(list ListReader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[list.ListID()] = list
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelListInvalidation)
	if err != nil {
		return fmt.Errorf("failed to subscribe to list invalidations: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

// Invalidate clears the shared cache for listID and tells every instance to
// mark its pages stale
func (s *CacheInvalidationService) Invalidate(ctx context.Context, listID string) error {
	logger := observability.LoggerFromContext(ctx)

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, querykey.Prefix(listID)+"*"); err != nil {
			logger.Warn().Err(err).Str("list_id", listID).Msg("failed to clear shared cache")
		}
	}

	event := entities.NewListEvent(listID, entities.ListEventTypeInvalidate, s.source)
	if err := s.eventBus.Publish(ctx, providers.EventChannelListInvalidation, event); err != nil {
		// Peers keep stale pages until their stale time passes; this instance is still cleared
		s.apply(event)
		return fmt.Errorf("failed to publish invalidation for %s: %w", listID, err)
	}
	return nil
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ListEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.apply(event)
		}
	}
}

func (s *CacheInvalidationService) apply(event *entities.ListEvent) {
	s.mu.RLock()
	list, ok := s.lists[event.ListID]
	s.mu.RUnlock()

	logger := observability.GetLogger()
	if !ok {
		logger.Debug().Str("list_id", event.ListID).Msg("ignoring invalidation for unknown list")
		return
	}

	n := list.Invalidate()
	logger.Info().
		Str("event_id", event.ID).
		Str("list_id", event.ListID).
		Str("source", event.Source).
		Int("entries", n).
		Dur("lag", time.Since(event.Timestamp)).
		Msg("invalidated list cache")
}
