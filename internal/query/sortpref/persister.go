// Package sortpref remembers the sort direction chosen for each list.
package sortpref

import (
	"context"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
)

// Persister loads and saves sort preferences. Storage failures are logged and
// treated as "nothing stored"; they never reach the caller.
type Persister struct {
	store providers.SortStore
}

// NewPersister wraps store. A nil store disables persistence.
func NewPersister(store providers.SortStore) *Persister {
	return &Persister{store: store}
}

// Load returns the stored sort for listID, or nil
func (p *Persister) Load(ctx context.Context, listID string) *entities.SortState {
	if p == nil || p.store == nil {
		return nil
	}

	state, err := p.store.Load(ctx, listID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("list_id", listID).
			Msg("ignoring unreadable sort preference")
		return nil
	}
	if state == nil || !state.Direction.Valid() {
		return nil
	}
	return state
}

// Save stores state for listID
func (p *Persister) Save(ctx context.Context, listID string, state entities.SortState) {
	if p == nil || p.store == nil {
		return
	}

	if err := p.store.Save(ctx, listID, state); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("list_id", listID).
			Msg("failed to save sort preference")
	}
}
