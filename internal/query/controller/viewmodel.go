package controller

import (
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/query/loading"
	"github.com/zatekoja/adminconsole/internal/query/pagination"
	"github.com/zatekoja/adminconsole/internal/query/querykey"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// ViewModel is everything a list screen renders. Items and Pagination belong to
// the last page shown, which may lag behind Filter while a request is in flight.
type ViewModel[T any] struct {
	ListID     string
	Key        querykey.Key
	Filter     entities.FilterState
	Sort       entities.SortState
	Items      []T
	Pagination entities.Pagination
	HasData    bool
	Window     pagination.Window

	Loading              loading.State
	ShowSkeleton         bool
	ShowRefetchIndicator bool

	Error      *apperrors.AppError
	ErrorText  string
	CanRetry   bool
	RetryLabel string

	SearchInput string
	SearchError string
}

func (c *ListController[T]) viewModelLocked() ViewModel[T] {
	state := c.classifier.State()

	vm := ViewModel[T]{
		ListID:               c.cfg.ListID,
		Key:                  c.activeKey,
		Filter:               c.filter.Clone(),
		Sort:                 c.filter.Sort,
		Loading:              state,
		ShowSkeleton:         state.ShowSkeleton(),
		ShowRefetchIndicator: state.ShowRefetchIndicator(),
		SearchInput:          c.gate.Pending(),
		SearchError:          c.searchError,
	}

	totalPages := c.knownTotalPages
	if c.visible != nil {
		vm.Items = c.visible.Items
		vm.Pagination = c.visible.Pagination
		vm.HasData = true
		if totalPages == 0 {
			totalPages = c.visible.Pagination.TotalPages
		}
	}
	vm.Window = pagination.Compute(c.filter.Page, totalPages)

	if c.err != nil {
		vm.Error = c.err
		vm.ErrorText = c.err.UserMessage()
		vm.CanRetry = c.err.Retryable()
		if vm.CanRetry {
			vm.RetryLabel = apperrors.RetryLabel
		}
	}

	return vm
}
