// Package cache holds list pages by query key with a staleness window and
// keep-previous-data semantics.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// Status is the state of the last request made for a key
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome says how GetOrFetch answered
type Outcome string

const (
	OutcomeHit   Outcome = "HIT"
	OutcomeStale Outcome = "STALE"
	OutcomeMiss  Outcome = "MISS"
)

// DefaultStaleTime is how long a page is served without revalidation
const DefaultStaleTime = 60 * time.Second

// Entry is a snapshot of what the cache knows about one key. Data is the last
// successful page and survives later pending or failed requests.
type Entry[T any] struct {
	Key           querykey.Key
	Data          *entities.Page[T]
	Status        Status
	Error         *apperrors.AppError
	UpdatedAt     time.Time
	DataUpdatedAt time.Time
	Invalidated   bool
}

// HasData reports whether a successful page is available
func (e Entry[T]) HasData() bool {
	return e.Data != nil
}

// SharedStore is a second cache level shared between processes
type SharedStore[T any] interface {
	GetPage(ctx context.Context, key querykey.Key) (*entities.Page[T], error)
	SetPage(ctx context.Context, key querykey.Key, page entities.Page[T]) error
}

// FetchFunc loads the page for a key
type FetchFunc[T any] func(ctx context.Context) (entities.Page[T], error)

// Options configures a ResultCache
type Options[T any] struct {
	// StaleTime is the age after which a page is revalidated. Zero means always stale.
	StaleTime time.Duration
	// MaxEntries bounds the number of keys kept; least recently used keys go first.
	MaxEntries int
	// FetchTimeout bounds fetches started by GetOrFetch.
	FetchTimeout time.Duration
	// Shared is an optional second level consulted on misses.
	Shared SharedStore[T]
	// Now overrides the clock in tests.
	Now func() time.Time
}

// ResultCache stores pages by key. It is safe for concurrent use and may be
// shared by every controller showing the same list.
type ResultCache[T any] struct {
	mu           sync.Mutex
	entries      *lru.Cache[querykey.Key, *Entry[T]]
	staleTime    time.Duration
	fetchTimeout time.Duration
	shared       SharedStore[T]
	now          func() time.Time
	group        singleflight.Group
}

// New creates a ResultCache
func New[T any](opts Options[T]) (*ResultCache[T], error) {
	size := opts.MaxEntries
	if size <= 0 {
		size = 1000
	}
	entries, err := lru.New[querykey.Key, *Entry[T]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ResultCache[T]{
		entries:      entries,
		staleTime:    opts.StaleTime,
		fetchTimeout: opts.FetchTimeout,
		shared:       opts.Shared,
		now:          now,
	}, nil
}

// Peek returns a snapshot of the entry for key
func (c *ResultCache[T]) Peek(key querykey.Key) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// IsStale reports whether an entry's data should be revalidated
func (c *ResultCache[T]) IsStale(e Entry[T]) bool {
	if e.Data == nil || e.Invalidated {
		return true
	}
	return c.now().Sub(e.DataUpdatedAt) >= c.staleTime
}

// Fresh returns the entry for key when it holds data that is not stale
func (c *ResultCache[T]) Fresh(key querykey.Key) (Entry[T], bool) {
	e, ok := c.Peek(key)
	if !ok || c.IsStale(e) {
		return e, false
	}
	return e, true
}

// MarkPending records that a request for key started. Existing data is kept.
func (c *ResultCache[T]) MarkPending(key querykey.Key) {
	c.update(key, func(e *Entry[T]) {
		e.Status = StatusPending
	})
}

// Resolve stores a successful page for key
func (c *ResultCache[T]) Resolve(key querykey.Key, page entities.Page[T]) {
	c.update(key, func(e *Entry[T]) {
		p := page
		e.Data = &p
		e.Status = StatusSuccess
		e.Error = nil
		e.DataUpdatedAt = e.UpdatedAt
		e.Invalidated = false
	})
}

// Reject records a failed request for key. The last successful page stays.
func (c *ResultCache[T]) Reject(key querykey.Key, err *apperrors.AppError) {
	c.update(key, func(e *Entry[T]) {
		e.Status = StatusError
		e.Error = err
	})
}

// Abort records that a pending request for key was canceled before it finished
func (c *ResultCache[T]) Abort(key querykey.Key) {
	c.update(key, func(e *Entry[T]) {
		if e.Status != StatusPending {
			return
		}
		switch {
		case e.Error != nil:
			e.Status = StatusError
		case e.Data != nil:
			e.Status = StatusSuccess
		default:
			e.Status = StatusIdle
		}
	})
}

// Invalidate marks every entry whose key starts with prefix as stale and
// returns how many were marked. Data stays available until replaced.
func (c *ResultCache[T]) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, key := range c.entries.Keys() {
		if !key.HasPrefix(prefix) {
			continue
		}
		if e, ok := c.entries.Peek(key); ok {
			e.Invalidated = true
			n++
		}
	}
	return n
}

// Len returns the number of keys held
func (c *ResultCache[T]) Len() int {
	return c.entries.Len()
}

// GetOrFetch answers from the cache when it can. Fresh data is returned as is;
// stale data is returned immediately and refreshed in the background; a miss
// checks the shared store and then waits for fetch. Concurrent callers for the
// same key share one fetch, and a caller giving up does not cancel it for the others.
func (c *ResultCache[T]) GetOrFetch(ctx context.Context, key querykey.Key, fetch FetchFunc[T]) (entities.Page[T], Outcome, error) {
	if e, ok := c.Peek(key); ok && e.Data != nil {
		if !c.IsStale(e) {
			return *e.Data, OutcomeHit, nil
		}
		c.group.DoChan(string(key), func() (interface{}, error) {
			return c.load(context.WithoutCancel(ctx), key, fetch)
		})
		return *e.Data, OutcomeStale, nil
	}

	if c.shared != nil {
		page, err := c.shared.GetPage(ctx, key)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key.String()).Msg("shared cache lookup failed")
		} else if page != nil {
			c.Resolve(key, *page)
			return *page, OutcomeHit, nil
		}
	}

	ch := c.group.DoChan(string(key), func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, fetch)
	})

	select {
	case <-ctx.Done():
		return entities.Page[T]{}, OutcomeMiss, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entities.Page[T]{}, OutcomeMiss, res.Err
		}
		return res.Val.(entities.Page[T]), OutcomeMiss, nil
	}
}

func (c *ResultCache[T]) load(ctx context.Context, key querykey.Key, fetch FetchFunc[T]) (entities.Page[T], error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	c.MarkPending(key)
	page, err := fetch(ctx)
	if apperrors.IsCanceled(err) {
		c.Abort(key)
		return entities.Page[T]{}, err
	}
	if err != nil {
		appErr := apperrors.Classify(err)
		c.Reject(key, appErr)
		return entities.Page[T]{}, appErr
	}

	c.Resolve(key, page)
	if c.shared != nil {
		if err := c.shared.SetPage(ctx, key, page); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key.String()).Msg("shared cache write failed")
		}
	}
	return page, nil
}

func (c *ResultCache[T]) update(key querykey.Key, fn func(e *Entry[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		e = &Entry[T]{Key: key, Status: StatusIdle}
		c.entries.Add(key, e)
	}
	e.UpdatedAt = c.now()
	fn(e)
}
