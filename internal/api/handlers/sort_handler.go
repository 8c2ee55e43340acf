package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// SortPreferences stores the sort chosen for each list
type SortPreferences interface {
	Get(ctx context.Context, listID string) (entities.SortState, error)
	Set(ctx context.Context, listID, direction string) (entities.SortState, error)
}

// SortHandler handles sort preference requests
type SortHandler struct {
	prefs SortPreferences
}

// NewSortHandler creates a new sort handler
func NewSortHandler(prefs SortPreferences) *SortHandler {
	return &SortHandler{prefs: prefs}
}

type sortResponse struct {
	ListID    string                 `json:"listId"`
	Field     string                 `json:"field"`
	Direction entities.SortDirection `json:"dir"`
}

// GetSort handles GET /api/lists/{listID}/sort
func (h *SortHandler) GetSort(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("listID")

	state, err := h.prefs.Get(r.Context(), listID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sortResponse{ListID: listID, Field: state.Field, Direction: state.Direction})
}

// PutSort handles PUT /api/lists/{listID}/sort with a body of {"dir":"asc"|"desc"}
func (h *SortHandler) PutSort(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("listID")

	var body struct {
		Direction string `json:"dir"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.prefs.Set(r.Context(), listID, body.Direction)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sortResponse{ListID: listID, Field: state.Field, Direction: state.Direction})
}
