package controller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/adminconsole/internal/adapters/preferences"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/query/cache"
	"github.com/zatekoja/adminconsole/internal/query/loading"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
	"github.com/zatekoja/adminconsole/internal/query/sortpref"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

const listID = "historicoList"

type result struct {
	page entities.Page[string]
	err  error
}

type call struct {
	filter  entities.FilterState
	respond chan result
}

// fakeFetcher hands every request to the test and waits for its answer
type fakeFetcher struct {
	calls        chan *call
	ignoreCancel bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *call, 32)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[string], error) {
	c := &call{filter: filter, respond: make(chan result, 1)}
	f.calls <- c

	if f.ignoreCancel {
		r := <-c.respond
		return r.page, r.err
	}
	select {
	case r := <-c.respond:
		return r.page, r.err
	case <-ctx.Done():
		return entities.Page[string]{}, ctx.Err()
	}
}

func (f *fakeFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for fetch")
		return nil
	}
}

func (f *fakeFetcher) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected fetch %v", c.filter.QueryParams())
	case <-time.After(wait):
	}
}

func (c *call) ok(total int, items ...string) {
	c.respond <- result{page: entities.Page[string]{
		Items:      items,
		Pagination: entities.Pagination{Page: c.filter.Page, PageSize: c.filter.PageSize, Total: total},
	}}
}

func (c *call) fail(err error) {
	c.respond <- result{err: err}
}

type harness struct {
	ctrl    *ListController[string]
	fetcher *fakeFetcher
	cache   *cache.ResultCache[string]
	store   *preferences.MemorySortStore
	vms     <-chan ViewModel[string]
}

func newHarness(t *testing.T, staleTime time.Duration, mutate func(*Config)) *harness {
	t.Helper()

	rc, err := cache.New[string](cache.Options[string]{StaleTime: staleTime})
	require.NoError(t, err)

	cfg := Config{
		ListID:       listID,
		PageSize:     10,
		SortField:    "created_at",
		FetchTimeout: 2 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{fetcher: newFakeFetcher(), cache: rc, store: preferences.NewMemorySortStore()}
	h.ctrl, err = New[string](cfg, h.fetcher, rc, sortpref.NewPersister(h.store))
	require.NoError(t, err)
	h.vms = h.ctrl.Subscribe()
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) waitFor(t *testing.T, desc string, pred func(ViewModel[string]) bool) ViewModel[string] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case vm, ok := <-h.vms:
			require.True(t, ok, "subscription closed while waiting for %s", desc)
			if pred(vm) {
				return vm
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s; last view-model: %+v", desc, h.ctrl.ViewModel())
		}
	}
}

func (h *harness) waitReady(t *testing.T, first string) ViewModel[string] {
	t.Helper()
	return h.waitFor(t, "ready with "+first, func(vm ViewModel[string]) bool {
		return vm.Loading == loading.Ready && len(vm.Items) > 0 && vm.Items[0] == first
	})
}

func (h *harness) startWith(t *testing.T, total int, items ...string) {
	t.Helper()
	h.ctrl.Start(context.Background())
	h.fetcher.next(t).ok(total, items...)
	h.waitReady(t, items[0])
}

func TestController_InitialLoad(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.ctrl.Start(context.Background())

	vm := h.waitFor(t, "initial load", func(vm ViewModel[string]) bool { return vm.Loading == loading.InitialLoad })
	assert.True(t, vm.ShowSkeleton)
	assert.False(t, vm.HasData)

	c := h.fetcher.next(t)
	assert.Equal(t, 1, c.filter.Page)
	assert.Equal(t, "created_at", c.filter.QueryParams().Get("sort"))
	c.ok(25, "a1", "a2")

	vm = h.waitReady(t, "a1")
	assert.Equal(t, 3, vm.Pagination.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, vm.Window.Pages)
	assert.False(t, vm.ShowSkeleton)
}

func TestController_FacetResetsPageAndKeepsPreviousRows(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 100, "p1")

	h.ctrl.UpdatePage(5)
	h.fetcher.next(t).ok(100, "p5")
	before := h.waitReady(t, "p5")

	h.ctrl.UpdateFacet("status", entities.Set("ATIVO", "SUSPENSO"))

	vm := h.waitFor(t, "filter refetch", func(vm ViewModel[string]) bool { return vm.Loading == loading.FilterRefetch })
	assert.Equal(t, 1, vm.Filter.Page)
	assert.NotEqual(t, before.Key, vm.Key)
	assert.Equal(t, []string{"p5"}, vm.Items, "previous rows stay until the new page arrives")

	c := h.fetcher.next(t)
	assert.Equal(t, 1, c.filter.Page)
	assert.Equal(t, "ATIVO,SUSPENSO", c.filter.QueryParams().Get("status"))
	c.ok(2, "s1", "s2")

	vm = h.waitReady(t, "s1")
	assert.Equal(t, []string{"s1", "s2"}, vm.Items)
}

func TestController_UpdatePageClampsToKnownTotal(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 25, "p1")

	h.ctrl.UpdatePage(4)

	c := h.fetcher.next(t)
	assert.Equal(t, 3, c.filter.Page)
	c.ok(25, "p3")
	vm := h.waitReady(t, "p3")
	assert.Equal(t, 3, vm.Filter.Page)
}

func TestController_UpdatePageBeforeStartWaitsForStart(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	require.NoError(t, h.store.Save(context.Background(), listID, entities.SortState{Direction: entities.SortDesc}))

	h.ctrl.UpdatePage(2)
	h.fetcher.expectNone(t, 50*time.Millisecond)

	h.ctrl.Start(context.Background())
	c := h.fetcher.next(t)
	assert.Equal(t, 2, c.filter.Page)
	assert.Equal(t, "desc", c.filter.QueryParams().Get("order"))
	c.ok(30, "p2")
	h.waitReady(t, "p2")
	h.fetcher.expectNone(t, 50*time.Millisecond)
}

func TestController_ReservedFacetKeyDoesNotFetch(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 25, "p1")

	h.ctrl.UpdateFacet("value", entities.Scalar("10"))
	h.fetcher.expectNone(t, 50*time.Millisecond)
	assert.Empty(t, h.ctrl.Filter().Facets)
}

func TestController_UpdatePageIsIdempotent(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 25, "p1")

	h.ctrl.UpdatePage(1)
	h.ctrl.UpdatePage(0)
	h.fetcher.expectNone(t, 50*time.Millisecond)
}

func TestController_ClampsWhenTotalShrinks(t *testing.T) {
	h := newHarness(t, 0, nil)
	h.startWith(t, 100, "p1")

	h.ctrl.UpdatePage(7)
	h.fetcher.next(t).ok(100, "p7")
	h.waitReady(t, "p7")

	h.ctrl.Revalidate()
	h.fetcher.next(t).ok(25)

	c := h.fetcher.next(t)
	assert.Equal(t, 3, c.filter.Page, "the clamped page is requested, not page 7")

	vm := h.ctrl.ViewModel()
	assert.Equal(t, 3, vm.Filter.Page)
	assert.Equal(t, []string{"p7"}, vm.Items, "the out-of-range page is never shown")

	c.ok(25, "p3")
	h.waitReady(t, "p3")
}

func TestController_ShortSearchNeverFetches(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 5, "p1")

	h.ctrl.SetSearchInput("ab")
	err := h.ctrl.ApplySearch()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	h.fetcher.expectNone(t, 50*time.Millisecond)

	vm := h.ctrl.ViewModel()
	assert.Equal(t, "Digite ao menos 3 caracteres para buscar", vm.SearchError)
	assert.Equal(t, "ab", vm.SearchInput)
	assert.Equal(t, "", vm.Filter.Search)
}

func TestController_SearchApplyAndClear(t *testing.T) {
	h := newHarness(t, 0, nil)
	h.startWith(t, 30, "p1")
	h.ctrl.UpdatePage(2)
	h.fetcher.next(t).ok(30, "p2")
	h.waitReady(t, "p2")

	h.ctrl.SetSearchInput("maria")
	h.fetcher.expectNone(t, 30*time.Millisecond)
	require.NoError(t, h.ctrl.ApplySearch())

	c := h.fetcher.next(t)
	assert.Equal(t, "maria", c.filter.QueryParams().Get("search"))
	assert.Equal(t, 1, c.filter.Page)
	c.ok(1, "maria")
	h.waitReady(t, "maria")

	h.ctrl.SetSearchInput("")
	require.NoError(t, h.ctrl.ApplySearch())

	c = h.fetcher.next(t)
	_, hasSearch := c.filter.QueryParams()["search"]
	assert.False(t, hasSearch)
	c.ok(30, "p1")
	h.waitReady(t, "p1")
}

func TestController_SupersededResponseDoesNotWin(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.fetcher.ignoreCancel = true
	h.startWith(t, 5, "p1")

	h.ctrl.UpdateFacet("status", entities.Scalar("ATIVO"))
	k1 := h.fetcher.next(t)
	h.ctrl.UpdateFacet("status", entities.Scalar("SUSPENSO"))
	k2 := h.fetcher.next(t)

	k2.ok(1, "suspenso")
	h.waitReady(t, "suspenso")

	k1.ok(1, "ativo")
	key1 := querykey.Build(listID, k1.filter)
	require.Eventually(t, func() bool {
		e, ok := h.cache.Peek(key1)
		return ok && e.HasData()
	}, time.Second, 5*time.Millisecond, "superseded response is still cached")

	vm := h.ctrl.ViewModel()
	assert.Equal(t, []string{"suspenso"}, vm.Items)
	assert.Equal(t, querykey.Build(listID, k2.filter), vm.Key)
}

func TestController_TimeoutKeepsRowsAndRetries(t *testing.T) {
	h := newHarness(t, time.Minute, func(cfg *Config) { cfg.FetchTimeout = 40 * time.Millisecond })
	h.startWith(t, 30, "p1")

	h.ctrl.UpdatePage(2)
	first := h.fetcher.next(t)

	vm := h.waitFor(t, "timeout error", func(vm ViewModel[string]) bool { return vm.Error != nil })
	assert.Equal(t, apperrors.ErrorTypeTimeout, vm.Error.Type)
	assert.Equal(t, []string{"p1"}, vm.Items, "an error never clears rendered rows")
	assert.True(t, vm.CanRetry)
	assert.Equal(t, "tentar novamente", vm.RetryLabel)
	assert.Equal(t, loading.Ready, vm.Loading)

	entry, ok := h.cache.Peek(vm.Key)
	require.True(t, ok)
	assert.Equal(t, cache.StatusError, entry.Status)
	assert.Equal(t, apperrors.ErrorTypeTimeout, entry.Error.Type)

	h.ctrl.Retry()
	again := h.fetcher.next(t)
	assert.Equal(t, first.filter.QueryParams(), again.filter.QueryParams())
	again.ok(30, "p2")

	vm = h.waitReady(t, "p2")
	assert.Nil(t, vm.Error)
}

func TestController_TransportAndShapeLookTheSame(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 30, "p1")

	h.ctrl.UpdatePage(2)
	h.fetcher.next(t).fail(apperrors.NewStatusError(502))
	transport := h.waitFor(t, "transport error", func(vm ViewModel[string]) bool { return vm.Error != nil })

	h.ctrl.UpdatePage(3)
	h.fetcher.next(t).fail(apperrors.NewShapeError("missing data"))
	shape := h.waitFor(t, "shape error", func(vm ViewModel[string]) bool {
		return vm.Error != nil && vm.Error.Type == apperrors.ErrorTypeShape
	})

	assert.Equal(t, transport.ErrorText, shape.ErrorText)
	assert.Equal(t, transport.CanRetry, shape.CanRetry)
	assert.Equal(t, []string{"p1"}, shape.Items)
}

func TestController_CacheHitStillSignalsFilterRefetch(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.startWith(t, 30, "p1")

	h.ctrl.UpdatePage(2)
	h.fetcher.next(t).ok(30, "p2")
	h.waitReady(t, "p2")

	h.ctrl.UpdatePage(1)
	h.waitFor(t, "filter refetch on cache hit", func(vm ViewModel[string]) bool {
		return vm.Loading == loading.FilterRefetch && vm.Filter.Page == 1
	})
	h.waitReady(t, "p1")
	h.fetcher.expectNone(t, 50*time.Millisecond)
}

func TestController_StaleHitShowsDataAndRevalidatesInBackground(t *testing.T) {
	h := newHarness(t, 0, nil)
	h.startWith(t, 30, "p1")

	h.ctrl.UpdatePage(2)
	h.fetcher.next(t).ok(30, "p2")
	h.waitReady(t, "p2")

	h.ctrl.UpdatePage(1)
	vm := h.waitFor(t, "background refetch", func(vm ViewModel[string]) bool {
		return vm.Loading == loading.BackgroundRefetch
	})
	assert.Equal(t, []string{"p1"}, vm.Items)
	assert.True(t, vm.ShowRefetchIndicator)
	assert.False(t, vm.ShowSkeleton)

	h.fetcher.next(t).ok(30, "p1-fresh")
	h.waitReady(t, "p1-fresh")
}

func TestController_SortIsRestoredAndPersisted(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	require.NoError(t, h.store.Save(context.Background(), listID, entities.SortState{Direction: entities.SortDesc}))

	h.ctrl.Start(context.Background())
	c := h.fetcher.next(t)
	assert.Equal(t, "desc", c.filter.QueryParams().Get("order"))
	c.ok(30, "p1")
	h.waitReady(t, "p1")

	h.ctrl.UpdatePage(3)
	h.fetcher.next(t).ok(30, "p3")
	h.waitReady(t, "p3")

	h.ctrl.ToggleSort(context.Background())
	c = h.fetcher.next(t)
	assert.Equal(t, "asc", c.filter.QueryParams().Get("order"))
	assert.Equal(t, 1, c.filter.Page)

	stored, err := h.store.Load(context.Background(), listID)
	require.NoError(t, err)
	assert.Equal(t, entities.SortAsc, stored.Direction)
}

func TestController_ClearAll(t *testing.T) {
	h := newHarness(t, 0, nil)
	h.startWith(t, 30, "p1")

	h.ctrl.UpdateFacet("status", entities.Scalar("ATIVO"))
	h.fetcher.next(t).ok(30, "ativo")
	h.waitReady(t, "ativo")
	h.ctrl.UpdatePage(2)
	h.fetcher.next(t).ok(30, "ativo2")
	h.waitReady(t, "ativo2")

	h.ctrl.ClearAll()
	c := h.fetcher.next(t)
	params := c.filter.QueryParams()
	assert.Equal(t, "1", params.Get("page"))
	_, hasStatus := params["status"]
	assert.False(t, hasStatus)
	assert.Equal(t, "created_at", params.Get("sort"), "sort survives clearing filters")
	c.ok(30, "p1")
}

func TestController_EveryNonPageMutationResetsPage(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	upper := 50.0
	mutations := map[string]func(*ListController[string]){
		"facet":   func(c *ListController[string]) { c.UpdateFacet("actor", entities.Scalar("ana")) },
		"dates":   func(c *ListController[string]) { c.SetDateRange(entities.DateRange{From: &from}) },
		"numbers": func(c *ListController[string]) { c.SetNumericRange(entities.NumericRange{Max: &upper}) },
		"sort":    func(c *ListController[string]) { c.SetSort(context.Background(), entities.SortDesc) },
		"clear":   func(c *ListController[string]) { c.ClearAll() },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, 0, nil)
			h.startWith(t, 100, "p1")
			h.ctrl.UpdatePage(4)
			h.fetcher.next(t).ok(100, "p4")
			h.waitReady(t, "p4")

			mutate(h.ctrl)
			c := h.fetcher.next(t)
			assert.Equal(t, 1, c.filter.Page, name)
			c.ok(100, fmt.Sprintf("%s-1", name))
		})
	}
}

func TestController_CloseCancelsAndClosesSubscriptions(t *testing.T) {
	h := newHarness(t, time.Minute, nil)
	h.ctrl.Start(context.Background())
	h.fetcher.next(t)

	h.ctrl.Close()

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-h.vms:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)

	// mutations after close are ignored
	h.ctrl.UpdateFacet("status", entities.Scalar("ATIVO"))
	h.fetcher.expectNone(t, 30*time.Millisecond)
}

func TestNew_Validation(t *testing.T) {
	rc, err := cache.New[string](cache.Options[string]{})
	require.NoError(t, err)

	_, err = New[string](Config{}, newFakeFetcher(), rc, nil)
	assert.Error(t, err)
	_, err = New[string](Config{ListID: listID}, nil, rc, nil)
	assert.Error(t, err)
	_, err = New[string](Config{ListID: listID}, newFakeFetcher(), nil, nil)
	assert.Error(t, err)
}
