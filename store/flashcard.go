// Package store implements flashcard persistence. Every operation takes the
// acting user's ID as the authorization boundary: rows belonging to other
// users are indistinguishable from missing rows.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/models"
	"gorm.io/gorm"
)

// CreateFlashcardInput is the validated payload for a new flashcard.
type CreateFlashcardInput struct {
	Front           string
	Back            string
	Type            string
	KnowledgeStatus string
}

// UpdateFlashcardInput is a partial update; nil fields are untouched.
type UpdateFlashcardInput struct {
	Front           *string
	Back            *string
	Type            *string
	KnowledgeStatus *string
	LastReviewDate  *time.Time
}

// FlashcardStore provides user-scoped CRUD over the flashcards table.
type FlashcardStore struct {
	db *gorm.DB
}

func NewFlashcardStore(db *gorm.DB) *FlashcardStore {
	return &FlashcardStore{db: db}
}

// Create validates and inserts a flashcard for the user. KnowledgeStatus
// defaults to "new".
func (s *FlashcardStore) Create(ctx context.Context, userID uint, input CreateFlashcardInput) (*models.Flashcard, error) {
	if err := validateFront(input.Front); err != nil {
		return nil, err
	}
	if err := validateBack(input.Back); err != nil {
		return nil, err
	}
	if err := validateType(input.Type); err != nil {
		return nil, err
	}

	status := input.KnowledgeStatus
	if status == "" {
		status = "new"
	}

	flashcard := models.Flashcard{
		Front:           input.Front,
		Back:            input.Back,
		Type:            input.Type,
		KnowledgeStatus: status,
		UserID:          userID,
	}
	if err := s.db.WithContext(ctx).Create(&flashcard).Error; err != nil {
		return nil, &errs.PersistenceError{Op: "create flashcard", Err: err}
	}
	return &flashcard, nil
}

// List returns one page of the user's flashcards, newest first, along with the
// user's total row count.
func (s *FlashcardStore) List(ctx context.Context, userID uint, page, pageSize int) ([]models.Flashcard, int64, error) {
	if page < 1 {
		return nil, 0, errs.NewValidation("page", "must be at least 1")
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, 0, errs.NewValidation("pageSize", "must be between 1 and 100")
	}

	scoped := s.db.WithContext(ctx).Model(&models.Flashcard{}).Where("user_id = ?", userID)

	var totalCount int64
	if err := scoped.Count(&totalCount).Error; err != nil {
		return nil, 0, &errs.PersistenceError{Op: "count flashcards", Err: err}
	}

	var flashcards []models.Flashcard
	offset := (page - 1) * pageSize
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&flashcards).Error
	if err != nil {
		return nil, 0, &errs.PersistenceError{Op: "list flashcards", Err: err}
	}

	return flashcards, totalCount, nil
}

// Update fetches the row scoped to (id, user) and applies the partial update.
// The ownership check and the write are two statements; the database's own
// constraints remain the enforcement boundary, the check exists to produce a
// friendlier error.
func (s *FlashcardStore) Update(ctx context.Context, userID, id uint, input UpdateFlashcardInput) (*models.Flashcard, error) {
	var flashcard models.Flashcard
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&flashcard).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, &errs.PersistenceError{Op: "fetch flashcard", Err: err}
	}

	if input.Front != nil {
		if err := validateFront(*input.Front); err != nil {
			return nil, err
		}
		flashcard.Front = *input.Front
	}
	if input.Back != nil {
		if err := validateBack(*input.Back); err != nil {
			return nil, err
		}
		flashcard.Back = *input.Back
	}
	if input.Type != nil {
		if err := validateType(*input.Type); err != nil {
			return nil, err
		}
		flashcard.Type = *input.Type
	}
	if input.KnowledgeStatus != nil {
		flashcard.KnowledgeStatus = *input.KnowledgeStatus
	}
	if input.LastReviewDate != nil {
		flashcard.LastReviewDate = input.LastReviewDate
	}

	if err := s.db.WithContext(ctx).Save(&flashcard).Error; err != nil {
		return nil, &errs.PersistenceError{Op: "update flashcard", Err: err}
	}
	return &flashcard, nil
}

// Delete removes the row scoped to (id, user). A row owned by someone else
// reports ErrNotFound, never its existence.
func (s *FlashcardStore) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Flashcard{})
	if result.Error != nil {
		return &errs.PersistenceError{Op: "delete flashcard", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func validateFront(front string) error {
	if front == "" {
		return errs.NewValidation("front", "must not be empty")
	}
	if len([]rune(front)) > models.FrontMaxLen {
		return errs.NewValidation("front", fmt.Sprintf("cannot exceed %d characters", models.FrontMaxLen))
	}
	return nil
}

func validateBack(back string) error {
	if back == "" {
		return errs.NewValidation("back", "must not be empty")
	}
	if len([]rune(back)) > models.BackMaxLen {
		return errs.NewValidation("back", fmt.Sprintf("cannot exceed %d characters", models.BackMaxLen))
	}
	return nil
}

func validateType(t string) error {
	if t != models.TypeAI && t != models.TypeManual {
		return errs.NewValidation("type", `must be either "AI" or "manual"`)
	}
	return nil
}
