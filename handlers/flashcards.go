package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/middleware"
	"github.com/pwojcik/flashgen-api/models"
	"github.com/pwojcik/flashgen-api/store"
	"go.uber.org/zap"
)

// FlashcardHandler serves flashcard CRUD.
type FlashcardHandler struct {
	Store *store.FlashcardStore
	Log   *zap.Logger
}

// Create handles POST /api/flashcards/createFlashcard.
func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Front           string `json:"front"`
		Back            string `json:"back"`
		Type            string `json:"type"`
		KnowledgeStatus string `json:"knowledge_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}

	flashcard, err := h.Store.Create(r.Context(), user.ID, store.CreateFlashcardInput{
		Front:           req.Front,
		Back:            req.Back,
		Type:            req.Type,
		KnowledgeStatus: req.KnowledgeStatus,
	})
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, flashcard)
}

// List handles GET /api/flashcards/getFlashcards?page&pageSize.
func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page, pageSize := 1, 10
	details := map[string]string{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			details["page"] = "must be a positive integer"
		} else {
			page = v
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			details["pageSize"] = "must be an integer between 1 and 100"
		} else {
			pageSize = v
		}
	}
	if len(details) > 0 {
		writeValidation(w, details)
		return
	}

	flashcards, totalItems, err := h.Store.List(r.Context(), user.ID, page, pageSize)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	if flashcards == nil {
		flashcards = []models.Flashcard{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flashcards":  flashcards,
		"totalItems":  totalItems,
		"currentPage": page,
		"pageSize":    pageSize,
	})
}

// Update handles PUT /api/flashcards/updateFlashcard.
func (h *FlashcardHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		ID              uint    `json:"id"`
		Front           *string `json:"front,omitempty"`
		Back            *string `json:"back,omitempty"`
		Type            *string `json:"type,omitempty"`
		KnowledgeStatus *string `json:"knowledge_status,omitempty"`
		LastReviewDate  *string `json:"last_review_date,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode request")
		return
	}
	if req.ID == 0 {
		writeValidation(w, map[string]string{"id": "must be a positive integer"})
		return
	}

	input := store.UpdateFlashcardInput{
		Front:           req.Front,
		Back:            req.Back,
		Type:            req.Type,
		KnowledgeStatus: req.KnowledgeStatus,
	}
	if req.LastReviewDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.LastReviewDate)
		if err != nil {
			writeValidation(w, map[string]string{"last_review_date": "must be an RFC 3339 timestamp"})
			return
		}
		input.LastReviewDate = &parsed
	}

	flashcard, err := h.Store.Update(r.Context(), user.ID, req.ID, input)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    flashcard,
		"message": "Flashcard updated successfully",
	})
}

// Delete handles DELETE /api/flashcards/deleteFlashcard?id=.
func (h *FlashcardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid flashcard ID")
		return
	}

	if err := h.Store.Delete(r.Context(), user.ID, uint(id)); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Flashcard not found")
			return
		}
		writeServiceError(w, h.Log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
