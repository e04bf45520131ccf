// Package handlers contains the HTTP endpoints: per-request decoding, field
// validation and error-to-status mapping around the services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pwojcik/flashgen-api/errs"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidation returns the structured 400 body with per-field detail.
func writeValidation(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "Validation error",
		"details": details,
	})
}

// writeServiceError maps component errors to HTTP statuses. 500 bodies stay
// generic; the underlying cause goes to the log only.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var vErr *errs.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeValidation(w, map[string]string{vErr.Field: vErr.Message})
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, errs.ErrForbidden):
		writeError(w, http.StatusForbidden, "Permission denied")
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
