package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// SortPreferenceService reads and writes the stored sort of each list. Unlike
// the controller's persister it reports storage failures to its caller.
type SortPreferenceService struct {
	store    providers.SortStore
	defaults map[string]entities.SortState
}

// NewSortPreferenceService creates a sort preference service. defaults lists
// the known lists and the sort they start with.
func NewSortPreferenceService(store providers.SortStore, defaults map[string]entities.SortState) *SortPreferenceService {
	return &SortPreferenceService{store: store, defaults: defaults}
}

// Get returns the stored sort for listID, or the list's default
func (s *SortPreferenceService) Get(ctx context.Context, listID string) (entities.SortState, error) {
	def, ok := s.defaults[listID]
	if !ok {
		return entities.SortState{}, apperrors.NewNotFoundError(fmt.Sprintf("list %s not found", listID))
	}

	stored, err := s.store.Load(ctx, listID)
	if err != nil {
		return entities.SortState{}, apperrors.NewInternalError("failed to load sort preference", err)
	}
	if stored == nil || !stored.Direction.Valid() {
		return def, nil
	}
	return entities.SortState{Field: def.Field, Direction: stored.Direction}, nil
}

// Set stores direction for listID
func (s *SortPreferenceService) Set(ctx context.Context, listID, direction string) (entities.SortState, error) {
	def, ok := s.defaults[listID]
	if !ok {
		return entities.SortState{}, apperrors.NewNotFoundError(fmt.Sprintf("list %s not found", listID))
	}

	if direction == "" {
		return entities.SortState{}, apperrors.NewValidationError("sort direction is required")
	}
	dir, err := entities.ParseSortDirection(direction)
	if err != nil {
		return entities.SortState{}, err
	}

	state := entities.SortState{Field: def.Field, Direction: dir}
	if err := s.store.Save(ctx, listID, state); err != nil {
		return entities.SortState{}, apperrors.NewInternalError("failed to save sort preference", err)
	}
	return state, nil
}
