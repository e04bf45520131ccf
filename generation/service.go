// Package generation orchestrates the text-to-flashcards flow: it invokes the
// AI client, maps the answer into proposals and keeps the generation-session
// bookkeeping.
package generation

import (
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/models"
	"github.com/pwojcik/flashgen-api/openrouter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const systemPrompt = `You are a flashcard generation assistant. Your task is to create educational flashcards from the provided text.
Each flashcard should have a question on the front and an answer on the back. Follow these rules:
1. Create concise, focused questions that test understanding
2. Ensure answers are clear and accurate
3. Cover key concepts and important details
4. Avoid overly complex or compound questions
5. Make questions specific and unambiguous

You MUST respond with a JSON object in this exact format:
{
  "answer": [
    {
      "front": "question text here",
      "back": "answer text here"
    }
  ],
  "confidence": 0.9
}
where confidence is a number between 0 and 1 indicating confidence in the generated flashcards.`

// ChatClient is the slice of the AI client the orchestrator needs.
type ChatClient interface {
	SendChatMessage(ctx context.Context, systemMessage, userMessage string) (*openrouter.ChatResponse, error)
}

// ProposalDTO is an AI-suggested flashcard pending user accept/edit/reject.
// Proposals are never persisted; accepted ones become Flashcard rows through
// the flashcard create endpoint.
type ProposalDTO struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Type  string `json:"type"`
}

// Result is the outcome of one generation call.
type Result struct {
	GenerationID   string        `json:"generation_id"`
	Proposals      []ProposalDTO `json:"flashcards_proposal"`
	GeneratedCount int           `json:"generated_count"`
}

// Stats aggregates a user's accept/edit/reject tallies across sessions.
type Stats struct {
	SessionCount   int64 `json:"session_count"`
	GeneratedCount int64 `json:"generated_count"`
	AcceptedCount  int64 `json:"accepted_count"`
	EditedCount    int64 `json:"edited_count"`
	RejectedCount  int64 `json:"rejected_count"`
}

// Service is the generation orchestrator.
type Service struct {
	db     *gorm.DB
	client ChatClient
	log    *zap.Logger
}

func NewService(db *gorm.DB, client ChatClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, client: client, log: log}
}

// GenerateFlashcards turns raw input text into flashcard proposals and opens a
// generation session row for the request. The returned GenerationID identifies
// that row and must be passed back to RecordSession for the final tally.
func (s *Service) GenerateFlashcards(ctx context.Context, text string, userID uint) (*Result, error) {
	userPrompt := fmt.Sprintf("Please create flashcards from the following text:\n\n%s", text)

	resp, err := s.client.SendChatMessage(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	proposals := make([]ProposalDTO, 0, len(resp.Answer))
	for _, card := range resp.Answer {
		proposals = append(proposals, ProposalDTO{
			Front: card.Front,
			Back:  card.Back,
			Type:  models.TypeAI,
		})
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := models.GenerationSession{
		PublicID:        publicID,
		UserID:          userID,
		SessionDuration: "PT0S",
		GeneratedCount:  len(proposals),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, &errs.PersistenceError{Op: "create generation session", Err: err}
	}

	s.log.Info("generated flashcard proposals",
		zap.Uint("user_id", userID),
		zap.String("generation_id", publicID),
		zap.Int("count", len(proposals)),
		zap.Float64("confidence", resp.Confidence))

	return &Result{
		GenerationID:   publicID,
		Proposals:      proposals,
		GeneratedCount: len(proposals),
	}, nil
}

// RecordSession stores the final tally and elapsed time for a generation
// session. The session is addressed explicitly by its public ID, scoped to the
// acting user.
func (s *Service) RecordSession(ctx context.Context, userID uint, generationID string, durationSeconds, accepted, edited, rejected int) error {
	duration := fmt.Sprintf("PT%dS", durationSeconds)

	result := s.db.WithContext(ctx).
		Model(&models.GenerationSession{}).
		Where("public_id = ? AND user_id = ?", generationID, userID).
		Updates(map[string]interface{}{
			"session_duration": duration,
			"accepted_count":   accepted,
			"edited_count":     edited,
			"rejected_count":   rejected,
		})
	if result.Error != nil {
		return &errs.PersistenceError{Op: "update generation session", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UserStats sums the user's generation sessions.
func (s *Service) UserStats(ctx context.Context, userID uint) (*Stats, error) {
	var stats Stats
	err := s.db.WithContext(ctx).
		Model(&models.GenerationSession{}).
		Where("user_id = ?", userID).
		Select("COUNT(*) AS session_count, " +
			"COALESCE(SUM(generated_count), 0) AS generated_count, " +
			"COALESCE(SUM(accepted_count), 0) AS accepted_count, " +
			"COALESCE(SUM(edited_count), 0) AS edited_count, " +
			"COALESCE(SUM(rejected_count), 0) AS rejected_count").
		Scan(&stats).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &errs.PersistenceError{Op: "aggregate generation sessions", Err: err}
	}
	return &stats, nil
}
