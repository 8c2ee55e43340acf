package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zatekoja/adminconsole/internal/application/services"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// CacheHeader reports how a list response was served: HIT, STALE or MISS
const CacheHeader = "X-Cache"

// ListInvalidator drops cached pages of a list everywhere
type ListInvalidator interface {
	Invalidate(ctx context.Context, listID string) error
}

// ListHandler serves every registered list
type ListHandler struct {
	lists       map[string]services.ListReader
	invalidator ListInvalidator
}

// NewListHandler creates a new list handler
func NewListHandler(invalidator ListInvalidator, lists ...services.ListReader) *ListHandler {
	byID := make(map[string]services.ListReader, len(lists))
	for _, l := range lists {
		byID[l.ListID()] = l
	}
	return &ListHandler{lists: byID, invalidator: invalidator}
}

// GetList handles GET /api/lists/{listID}
func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	list, ok := h.lookup(w, r)
	if !ok {
		return
	}

	filter, err := entities.ParseFilterState(r.URL.Query(), list.ParseOptions())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	page, outcome, err := list.Read(r.Context(), filter)
	if err != nil {
		if apperrors.IsCanceled(err) || r.Context().Err() != nil {
			// The client went away
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set(CacheHeader, string(outcome))
	respondWithJSON(w, http.StatusOK, page)
}

// Invalidate handles POST /api/lists/{listID}/invalidate
func (h *ListHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	list, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.invalidator.Invalidate(r.Context(), list.ListID()); err != nil {
		respondWithAppError(w, r, apperrors.NewInternalError("failed to invalidate list", err))
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status": "invalidated",
		"listId": list.ListID(),
	})
}

func (h *ListHandler) lookup(w http.ResponseWriter, r *http.Request) (services.ListReader, bool) {
	listID := r.PathValue("listID")
	if listID == "" {
		respondWithError(w, http.StatusBadRequest, "list ID is required")
		return nil, false
	}

	list, ok := h.lists[listID]
	if !ok {
		respondWithAppError(w, r, apperrors.NewNotFoundError(fmt.Sprintf("list %s not found", listID)))
		return nil, false
	}
	return list, true
}
