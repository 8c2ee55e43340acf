package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps err to its status and the operator-facing message
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsCanceled(err) {
		return
	}
	appErr := apperrors.Classify(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	respondWithError(w, status, appErr.UserMessage())
}
