package generation

import (
	"context"
	"testing"

	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/models"
	"github.com/pwojcik/flashgen-api/openrouter"
	"github.com/pwojcik/flashgen-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateFlashcards(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")

	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer: []openrouter.Flashcard{
				{Front: "What is a goroutine?", Back: "A lightweight thread managed by the Go runtime"},
				{Front: "What is a channel?", Back: "A typed conduit for communication between goroutines"},
			},
			Confidence: 0.88,
		}, nil)

	svc := NewService(db, client, nil)
	result, err := svc.GenerateFlashcards(context.Background(), "some study text", user.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, result.GenerationID)
	assert.Equal(t, 2, result.GeneratedCount)
	require.Len(t, result.Proposals, 2)
	for _, p := range result.Proposals {
		assert.Equal(t, models.TypeAI, p.Type)
	}
	assert.Equal(t, "What is a goroutine?", result.Proposals[0].Front)

	// The call opens exactly one session row, zeroed except the generated count.
	var session models.GenerationSession
	require.NoError(t, db.Where("public_id = ?", result.GenerationID).First(&session).Error)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "PT0S", session.SessionDuration)
	assert.Equal(t, 2, session.GeneratedCount)
	assert.Zero(t, session.AcceptedCount)
	assert.Zero(t, session.EditedCount)
	assert.Zero(t, session.RejectedCount)

	// The prompt embeds the input text verbatim.
	client.AssertCalled(t, "SendChatMessage", mock.Anything, mock.Anything,
		mock.MatchedBy(func(userMsg string) bool {
			return len(userMsg) > 0 && userMsg[len(userMsg)-len("some study text"):] == "some study text"
		}))
}

func TestService_GenerateFlashcards_ClientError(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")

	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &errs.APIError{Status: 502, Body: "bad gateway"})

	svc := NewService(db, client, nil)
	_, err := svc.GenerateFlashcards(context.Background(), "some study text", user.ID)

	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)

	var count int64
	db.Model(&models.GenerationSession{}).Count(&count)
	assert.Zero(t, count, "no session row on a failed generation")
}

func TestService_RecordSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")

	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer:     []openrouter.Flashcard{{Front: "f", Back: "b"}},
			Confidence: 1.0,
		}, nil)

	svc := NewService(db, client, nil)
	result, err := svc.GenerateFlashcards(context.Background(), "text", user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RecordSession(context.Background(), user.ID, result.GenerationID, 42, 3, 1, 2))

	var session models.GenerationSession
	require.NoError(t, db.Where("public_id = ?", result.GenerationID).First(&session).Error)
	assert.Equal(t, "PT42S", session.SessionDuration)
	assert.Equal(t, 3, session.AcceptedCount)
	assert.Equal(t, 1, session.EditedCount)
	assert.Equal(t, 2, session.RejectedCount)
}

func TestService_RecordSession_WrongIDOrUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")
	other := testutil.CreateTestUser(t, db, "other@example.com", "password123")

	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer:     []openrouter.Flashcard{{Front: "f", Back: "b"}},
			Confidence: 1.0,
		}, nil)

	svc := NewService(db, client, nil)
	result, err := svc.GenerateFlashcards(context.Background(), "text", user.ID)
	require.NoError(t, err)

	assert.ErrorIs(t,
		svc.RecordSession(context.Background(), user.ID, "no-such-session", 10, 0, 0, 0),
		errs.ErrNotFound)
	assert.ErrorIs(t,
		svc.RecordSession(context.Background(), other.ID, result.GenerationID, 10, 0, 0, 0),
		errs.ErrNotFound, "a session is only addressable by its owner")
}

func TestService_UserStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")

	sessions := []models.GenerationSession{
		{PublicID: "s1", UserID: user.ID, SessionDuration: "PT10S", GeneratedCount: 5, AcceptedCount: 3, EditedCount: 1, RejectedCount: 1},
		{PublicID: "s2", UserID: user.ID, SessionDuration: "PT20S", GeneratedCount: 4, AcceptedCount: 2, EditedCount: 0, RejectedCount: 2},
	}
	for i := range sessions {
		require.NoError(t, db.Create(&sessions[i]).Error)
	}

	svc := NewService(db, new(testutil.MockChatClient), nil)
	stats, err := svc.UserStats(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.SessionCount)
	assert.Equal(t, int64(9), stats.GeneratedCount)
	assert.Equal(t, int64(5), stats.AcceptedCount)
	assert.Equal(t, int64(1), stats.EditedCount)
	assert.Equal(t, int64(3), stats.RejectedCount)
}

func TestService_UserStats_NoSessions(t *testing.T) {
	db := testutil.NewTestDB(t)

	svc := NewService(db, new(testutil.MockChatClient), nil)
	stats, err := svc.UserStats(context.Background(), 123)
	require.NoError(t, err)
	assert.Zero(t, stats.SessionCount)
	assert.Zero(t, stats.AcceptedCount)
}

func TestService_SystemPromptDemandsSchema(t *testing.T) {
	// Guard against drifting away from the schema the client validates.
	for _, needle := range []string{`"answer"`, `"front"`, `"back"`, `"confidence"`} {
		assert.Contains(t, systemPrompt, needle)
	}
}
