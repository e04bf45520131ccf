package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pwojcik/flashgen-api/generation"
	"github.com/pwojcik/flashgen-api/middleware"
	"go.uber.org/zap"
)

const (
	generationTextMinLen = 1000
	generationTextMaxLen = 10000
)

// GenerationHandler serves the AI generation flow.
type GenerationHandler struct {
	Service *generation.Service
	Log     *zap.Logger
}

// Generate handles POST /api/generations.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	length := len([]rune(req.Text))
	if length < generationTextMinLen {
		writeValidation(w, map[string]string{
			"text": fmt.Sprintf("must be at least %d characters long", generationTextMinLen),
		})
		return
	}
	if length > generationTextMaxLen {
		writeValidation(w, map[string]string{
			"text": fmt.Sprintf("cannot exceed %d characters", generationTextMaxLen),
		})
		return
	}

	result, err := h.Service.GenerateFlashcards(r.Context(), req.Text, user.ID)
	if err != nil {
		// Upstream failures, including schema violations in the AI response,
		// are not the caller's fault: keep the body generic.
		h.Log.Error("generation request failed", zap.Uint("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RecordSession handles POST /api/generations/session: the client reports the
// final accept/edit/reject tally for a generation it received earlier.
func (h *GenerationHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		GenerationID    string `json:"generation_id"`
		SessionDuration int    `json:"session_duration"`
		AcceptedCount   int    `json:"accepted_count"`
		EditedCount     int    `json:"edited_count"`
		RejectedCount   int    `json:"rejected_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	details := map[string]string{}
	if req.GenerationID == "" {
		details["generation_id"] = "is required"
	}
	if req.SessionDuration < 0 {
		details["session_duration"] = "must not be negative"
	}
	if req.AcceptedCount < 0 || req.EditedCount < 0 || req.RejectedCount < 0 {
		details["counts"] = "must not be negative"
	}
	if len(details) > 0 {
		writeValidation(w, details)
		return
	}

	err := h.Service.RecordSession(r.Context(), user.ID, req.GenerationID,
		req.SessionDuration, req.AcceptedCount, req.EditedCount, req.RejectedCount)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Generation session recorded"})
}

// Stats handles GET /api/generations/stats.
func (h *GenerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := h.Service.UserStats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
