// Package controller drives one paginated, filtered and sorted list: it turns
// operator input into a race-free sequence of fetches and publishes the result
// as view-model snapshots.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	"github.com/zatekoja/adminconsole/internal/query/cache"
	"github.com/zatekoja/adminconsole/internal/query/loading"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
	"github.com/zatekoja/adminconsole/internal/query/search"
	"github.com/zatekoja/adminconsole/internal/query/sortpref"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// Config describes one list screen
type Config struct {
	ListID          string
	PageSize        int
	SortField       string
	DefaultSort     entities.SortDirection
	SearchMinLength int
	SearchDebounce  time.Duration
	FetchTimeout    time.Duration
	// SubscriberBuffer is the number of snapshots a slow subscriber may lag behind.
	SubscriberBuffer int
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.SearchMinLength == 0 {
		c.SearchMinLength = 3
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = 16
	}
	c.DefaultSort = c.DefaultSort.OrDefault()
	return c
}

// flight is one fetch started by the controller
type flight struct {
	key     querykey.Key
	filter  entities.FilterState
	trigger loading.Trigger
	ctx     context.Context
	cancel  context.CancelFunc
}

// ListController owns the filter state of one list. Every method is safe for
// concurrent use; state changes are serialized behind one mutex and fetches
// run in their own goroutines.
type ListController[T any] struct {
	mu         sync.Mutex
	cfg        Config
	fetcher    providers.Fetcher[T]
	cache      *cache.ResultCache[T]
	persister  *sortpref.Persister
	gate       *search.Gate
	classifier *loading.Classifier

	baseCtx context.Context
	stop    context.CancelFunc

	filter      entities.FilterState
	activeKey   querykey.Key
	visible     *entities.Page[T]
	err         *apperrors.AppError
	searchError string
	// knownTotalPages is the page count of the current filter set, 0 while unknown.
	knownTotalPages int
	inFlight        *flight

	subs    []chan ViewModel[T]
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// New creates a controller. resultCache may be shared with other controllers
// of the same list; persister may be nil.
func New[T any](cfg Config, fetcher providers.Fetcher[T], resultCache *cache.ResultCache[T], persister *sortpref.Persister) (*ListController[T], error) {
	if cfg.ListID == "" {
		return nil, apperrors.NewValidationError("list id is required")
	}
	if fetcher == nil {
		return nil, apperrors.NewValidationError("fetcher is required")
	}
	if resultCache == nil {
		return nil, apperrors.NewValidationError("result cache is required")
	}
	cfg = cfg.withDefaults()

	c := &ListController[T]{
		cfg:        cfg,
		fetcher:    fetcher,
		cache:      resultCache,
		persister:  persister,
		classifier: loading.NewClassifier(),
		filter:     entities.NewFilterState(cfg.PageSize),
	}
	c.filter.Sort = entities.SortState{Field: cfg.SortField, Direction: cfg.DefaultSort}
	c.gate = search.NewGate(cfg.SearchMinLength, cfg.SearchDebounce, c.onSearchValidated)
	c.baseCtx, c.stop = context.WithCancel(context.Background())
	return c, nil
}

// Start restores the stored sort and issues the first request. Later calls do nothing.
func (c *ListController[T]) Start(ctx context.Context) {
	stored := c.persister.Load(ctx, c.cfg.ListID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.closed {
		return
	}
	c.started = true
	c.stop()
	c.baseCtx, c.stop = context.WithCancel(context.WithoutCancel(ctx))

	if stored != nil {
		c.filter.Sort.Direction = stored.Direction
	}
	c.requestLocked(loading.TriggerUser)
}

// UpdateFacet replaces one facet and returns to the first page
func (c *ListController[T]) UpdateFacet(key string, value entities.FacetValue) {
	if entities.IsReservedFacetKey(key) {
		observability.GetLogger().Warn().Str("list_id", c.cfg.ListID).Str("facet", key).Msg("ignoring reserved facet key")
		return
	}
	c.mutate(func(f entities.FilterState) entities.FilterState {
		return f.WithFacet(key, value)
	})
}

// SetDateRange replaces the date range and returns to the first page
func (c *ListController[T]) SetDateRange(r entities.DateRange) {
	c.mutate(func(f entities.FilterState) entities.FilterState {
		return f.WithDateRange(r)
	})
}

// SetNumericRange replaces the numeric bounds and returns to the first page
func (c *ListController[T]) SetNumericRange(r entities.NumericRange) {
	c.mutate(func(f entities.FilterState) entities.FilterState {
		return f.WithNumericRange(r)
	})
}

// UpdatePage moves to page n. Out-of-range pages are clamped, and moving to
// the current page does nothing. Before Start only the page is recorded.
func (c *ListController[T]) UpdatePage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if n < 1 {
		n = 1
	}
	if !c.started {
		c.filter = c.filter.WithPage(n)
		return
	}
	if c.knownTotalPages > 0 && n > c.knownTotalPages {
		n = c.knownTotalPages
	}
	if n == c.filter.Page {
		return
	}

	c.filter = c.filter.WithPage(n)
	c.requestLocked(loading.TriggerUser)
}

// ClearAll empties every facet, range and search and returns to the first page
func (c *ListController[T]) ClearAll() {
	c.gate.Clear()
	c.mutate(func(f entities.FilterState) entities.FilterState {
		c.searchError = ""
		return f.Cleared()
	})
}

// SetSearchInput records what the operator is typing. It never fetches.
func (c *ListController[T]) SetSearchInput(value string) {
	c.gate.SetPending(value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked()
}

// ApplySearch submits the typed search. A search shorter than the minimum
// length is rejected with a validation error and nothing is fetched.
func (c *ListController[T]) ApplySearch() error {
	applied, err := c.gate.Apply()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if err != nil {
		c.searchError = c.gate.Message()
		c.publishLocked()
		return err
	}

	c.searchError = ""
	c.filter = c.filter.WithSearch(applied)
	c.knownTotalPages = 0
	c.requestLocked(loading.TriggerUser)
	return nil
}

// SetSort applies a sort direction, stores it and returns to the first page
func (c *ListController[T]) SetSort(ctx context.Context, dir entities.SortDirection) {
	sort := c.mutate(func(f entities.FilterState) entities.FilterState {
		return f.WithSort(entities.SortState{Field: f.Sort.Field, Direction: dir.OrDefault()})
	})
	c.persister.Save(ctx, c.cfg.ListID, sort)
}

// ToggleSort flips the sort direction, stores it and returns to the first page
func (c *ListController[T]) ToggleSort(ctx context.Context) {
	sort := c.mutate(func(f entities.FilterState) entities.FilterState {
		return f.WithSort(f.Sort.Toggle())
	})
	c.persister.Save(ctx, c.cfg.ListID, sort)
}

// Retry re-issues the request for the current filters, bypassing the cache
func (c *ListController[T]) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.started {
		return
	}
	c.err = nil
	c.classifier.Begin(loading.TriggerUser)
	c.startFetchLocked(c.activeKey, c.filter, loading.TriggerUser)
	c.publishLocked()
}

// Revalidate refreshes the current page in the background when it is stale.
// Nothing happens while another request is in flight.
func (c *ListController[T]) Revalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.started || c.inFlight != nil {
		return
	}
	if _, fresh := c.cache.Fresh(c.activeKey); fresh {
		return
	}
	c.classifier.Begin(loading.TriggerBackground)
	c.startFetchLocked(c.activeKey, c.filter, loading.TriggerBackground)
	c.publishLocked()
}

// Subscribe returns a channel of view-model snapshots. A subscriber that falls
// behind loses the oldest snapshots, never the latest. The channel is closed by Close.
func (c *ListController[T]) Subscribe() <-chan ViewModel[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ViewModel[T], c.cfg.SubscriberBuffer)
	if c.closed {
		close(ch)
		return ch
	}
	ch <- c.viewModelLocked()
	c.subs = append(c.subs, ch)
	return ch
}

// ViewModel returns the current snapshot
func (c *ListController[T]) ViewModel() ViewModel[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewModelLocked()
}

// Filter returns a copy of the current filters
func (c *ListController[T]) Filter() entities.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Clone()
}

// Close cancels any in-flight request, stops the search debounce and closes
// every subscription. It waits for fetch goroutines to return.
func (c *ListController[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stop()
	c.gate.Stop()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.mu.Unlock()

	c.wg.Wait()
}

// mutate applies a filter change that is not a page move and returns the new sort
func (c *ListController[T]) mutate(fn func(entities.FilterState) entities.FilterState) entities.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.filter.Sort
	}
	c.filter = fn(c.filter)
	c.knownTotalPages = 0
	if c.started {
		c.requestLocked(loading.TriggerUser)
	}
	return c.filter.Sort
}

// requestLocked makes the current filters the active query. Cached data is
// shown at once; otherwise the previous page stays visible while fetching.
func (c *ListController[T]) requestLocked(trigger loading.Trigger) {
	c.activeKey = querykey.Build(c.cfg.ListID, c.filter)
	c.err = nil
	c.classifier.Begin(trigger)

	entry, ok := c.cache.Peek(c.activeKey)
	if !ok || !entry.HasData() {
		c.startFetchLocked(c.activeKey, c.filter, trigger)
		c.publishLocked()
		return
	}

	c.cancelInFlightLocked()
	c.publishLocked()
	if c.applyLocked(*entry.Data, trigger) {
		return
	}
	c.classifier.Settle(true)

	if c.cache.IsStale(entry) {
		c.classifier.Begin(loading.TriggerBackground)
		c.startFetchLocked(c.activeKey, c.filter, loading.TriggerBackground)
	}
	c.publishLocked()
}

// applyLocked shows page for the active key. When the page count has shrunk
// below the current page it clamps and requests the clamped page instead,
// returning true; the out-of-range page is never shown.
func (c *ListController[T]) applyLocked(page entities.Page[T], trigger loading.Trigger) bool {
	total := page.Pagination.TotalPages
	c.knownTotalPages = total
	if c.filter.Page > total {
		c.filter = c.filter.WithPage(total)
		c.requestLocked(trigger)
		return true
	}

	c.visible = &page
	c.err = nil
	return false
}

func (c *ListController[T]) startFetchLocked(key querykey.Key, filter entities.FilterState, trigger loading.Trigger) {
	c.cancelInFlightLocked()

	ctx, cancel := context.WithTimeout(c.baseCtx, c.cfg.FetchTimeout)
	f := &flight{
		key:     key,
		filter:  filter.Normalized(),
		trigger: trigger,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.inFlight = f
	c.cache.MarkPending(key)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		page, err := c.fetcher.Fetch(ctx, f.filter)
		c.onResult(f, page, err)
	}()
}

func (c *ListController[T]) cancelInFlightLocked() {
	if c.inFlight != nil {
		c.inFlight.cancel()
		c.inFlight = nil
	}
}

// onResult stores every response in the cache but only lets the response for
// the active key touch what is visible.
func (c *ListController[T]) onResult(f *flight, page entities.Page[T], err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latest := c.inFlight == f
	if latest {
		c.inFlight = nil
	}

	if err != nil {
		if errors.Is(f.ctx.Err(), context.Canceled) {
			if c.inFlight == nil || c.inFlight.key != f.key {
				c.cache.Abort(f.key)
			}
			return
		}

		appErr := apperrors.Classify(err)
		if errors.Is(f.ctx.Err(), context.DeadlineExceeded) {
			appErr = apperrors.NewTimeoutError("request timed out", err)
		}
		c.cache.Reject(f.key, appErr)

		if c.closed || !latest || f.key != c.activeKey {
			return
		}
		observability.GetLogger().Warn().
			Err(appErr).
			Str("list_id", c.cfg.ListID).
			Str("kind", string(appErr.Type)).
			Msg("list fetch failed")

		c.err = appErr
		c.classifier.Settle(c.visible != nil)
		c.publishLocked()
		return
	}

	page = page.Normalized(f.filter)
	c.cache.Resolve(f.key, page)

	if c.closed || f.key != c.activeKey {
		return
	}
	if c.applyLocked(page, f.trigger) {
		return
	}
	if latest || c.inFlight == nil {
		c.classifier.Settle(true)
	}
	c.publishLocked()
}

func (c *ListController[T]) onSearchValidated(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.searchError = message
	c.publishLocked()
}

func (c *ListController[T]) publishLocked() {
	if c.closed || len(c.subs) == 0 {
		return
	}
	vm := c.viewModelLocked()
	for _, ch := range c.subs {
		select {
		case ch <- vm:
		default:
			// drop the oldest snapshot so the latest always gets through
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- vm:
			default:
			}
		}
	}
}
