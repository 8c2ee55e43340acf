package providers

import (
	"context"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// SortStore persists the sort direction chosen for each list
type SortStore interface {
	// Load returns the stored sort, or nil when nothing was stored for listID
	Load(ctx context.Context, listID string) (*entities.SortState, error)

	// Save stores the sort for listID, replacing any previous value
	Save(ctx context.Context, listID string, state entities.SortState) error
}
