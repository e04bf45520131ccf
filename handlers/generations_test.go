package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pwojcik/flashgen-api/generation"
	"github.com/pwojcik/flashgen-api/models"
	"github.com/pwojcik/flashgen-api/openrouter"
	"github.com/pwojcik/flashgen-api/store"
	"github.com/pwojcik/flashgen-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newGenerationHandler(t *testing.T, client generation.ChatClient) (*GenerationHandler, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	user := testutil.CreateTestUser(t, db, "gen@example.com", "password123")
	return &GenerationHandler{
		Service: generation.NewService(db, client, zap.NewNop()),
		Log:     zap.NewNop(),
	}, db, user
}

func studyText() string {
	return strings.Repeat("The mitochondria is the powerhouse of the cell. ", 21)[:1000]
}

func TestGenerate(t *testing.T) {
	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer: []openrouter.Flashcard{
				{Front: "q1", Back: "a1"},
				{Front: "q2", Back: "a2"},
				{Front: "q3", Back: "a3"},
			},
			Confidence: 0.9,
		}, nil)

	h, _, user := newGenerationHandler(t, client)

	body, err := json.Marshal(map[string]string{"text": studyText()})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	h.Generate(w, authed(req, user))

	require.Equal(t, http.StatusOK, w.Code)

	var resp generation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.GenerationID)
	assert.Equal(t, 3, resp.GeneratedCount)
	require.Len(t, resp.Proposals, 3)
	for _, p := range resp.Proposals {
		assert.Equal(t, models.TypeAI, p.Type)
	}
}

func TestGenerate_TextBounds(t *testing.T) {
	h, db, user := newGenerationHandler(t, new(testutil.MockChatClient))

	tests := []struct {
		name string
		text string
	}{
		{name: "too short", text: strings.Repeat("x", 999)},
		{name: "too long", text: strings.Repeat("x", 10001)},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"text": tt.text})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(string(body)))
			w := httptest.NewRecorder()
			h.Generate(w, authed(req, user))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "text")
		})
	}

	var count int64
	db.Model(&models.GenerationSession{}).Count(&count)
	assert.Zero(t, count, "rejected input opens no session")
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("max retries exceeded: upstream down"))

	h, _, user := newGenerationHandler(t, client)

	body, _ := json.Marshal(map[string]string{"text": studyText()})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	h.Generate(w, authed(req, user))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRecordSession(t *testing.T) {
	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer:     []openrouter.Flashcard{{Front: "q", Back: "a"}},
			Confidence: 1.0,
		}, nil)

	h, db, user := newGenerationHandler(t, client)

	body, _ := json.Marshal(map[string]string{"text": studyText()})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	h.Generate(w, authed(req, user))
	require.Equal(t, http.StatusOK, w.Code)

	var genResp generation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genResp))

	tally := fmt.Sprintf(
		`{"generation_id":%q,"session_duration":17,"accepted_count":1,"edited_count":0,"rejected_count":0}`,
		genResp.GenerationID)
	req = httptest.NewRequest(http.MethodPost, "/api/generations/session", strings.NewReader(tally))
	w = httptest.NewRecorder()
	h.RecordSession(w, authed(req, user))
	require.Equal(t, http.StatusOK, w.Code)

	var session models.GenerationSession
	require.NoError(t, db.Where("public_id = ?", genResp.GenerationID).First(&session).Error)
	assert.Equal(t, "PT17S", session.SessionDuration)
	assert.Equal(t, 1, session.AcceptedCount)
}

func TestRecordSession_Validation(t *testing.T) {
	h, _, user := newGenerationHandler(t, new(testutil.MockChatClient))

	tests := []struct {
		name string
		body string
	}{
		{name: "missing generation id", body: `{"session_duration":10}`},
		{name: "negative duration", body: `{"generation_id":"abc","session_duration":-1}`},
		{name: "negative count", body: `{"generation_id":"abc","session_duration":1,"accepted_count":-2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/generations/session", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.RecordSession(w, authed(req, user))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRecordSession_UnknownID(t *testing.T) {
	h, _, user := newGenerationHandler(t, new(testutil.MockChatClient))

	req := httptest.NewRequest(http.MethodPost, "/api/generations/session",
		strings.NewReader(`{"generation_id":"missing","session_duration":5}`))
	w := httptest.NewRecorder()
	h.RecordSession(w, authed(req, user))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	h, db, user := newGenerationHandler(t, new(testutil.MockChatClient))

	require.NoError(t, db.Create(&models.GenerationSession{
		PublicID: "s1", UserID: user.ID, SessionDuration: "PT10S",
		GeneratedCount: 6, AcceptedCount: 4, EditedCount: 1, RejectedCount: 1,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/generations/stats", nil)
	w := httptest.NewRecorder()
	h.Stats(w, authed(req, user))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted_count":4`)
	assert.Contains(t, w.Body.String(), `"session_count":1`)
}

func TestGenerationRequiresAuth(t *testing.T) {
	h, _, _ := newGenerationHandler(t, new(testutil.MockChatClient))

	endpoints := []struct {
		method string
		path   string
		fn     http.HandlerFunc
	}{
		{http.MethodPost, "/api/generations", h.Generate},
		{http.MethodPost, "/api/generations/session", h.RecordSession},
		{http.MethodGet, "/api/generations/stats", h.Stats},
	}

	for _, ep := range endpoints {
		req := httptest.NewRequest(ep.method, ep.path, strings.NewReader("{}"))
		w := httptest.NewRecorder()
		ep.fn(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", ep.method, ep.path)
	}
}

// Full accept flow: generate proposals, accept two of them through the
// flashcard create endpoint, and verify exactly those rows exist.
func TestGenerateThenAcceptTwo(t *testing.T) {
	client := new(testutil.MockChatClient)
	client.On("SendChatMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(&openrouter.ChatResponse{
			Answer: []openrouter.Flashcard{
				{Front: "q1", Back: "a1"},
				{Front: "q2", Back: "a2"},
				{Front: "q3", Back: "a3"},
			},
			Confidence: 0.9,
		}, nil)

	genHandler, db, user := newGenerationHandler(t, client)
	cardHandler := &FlashcardHandler{Store: store.NewFlashcardStore(db), Log: zap.NewNop()}

	body, _ := json.Marshal(map[string]string{"text": studyText()})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	genHandler.Generate(w, authed(req, user))
	require.Equal(t, http.StatusOK, w.Code)

	var resp generation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 3)

	// Accept the first two proposals; the third is rejected client-side and
	// never touches the store.
	for _, p := range resp.Proposals[:2] {
		accept, err := json.Marshal(map[string]string{"front": p.Front, "back": p.Back, "type": p.Type})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/flashcards/createFlashcard",
			strings.NewReader(string(accept)))
		w := httptest.NewRecorder()
		cardHandler.Create(w, authed(req, user))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var cards []models.Flashcard
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id").Find(&cards).Error)
	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.Equal(t, models.TypeAI, card.Type)
	}
	assert.Equal(t, "q1", cards[0].Front)
	assert.Equal(t, "q2", cards[1].Front)
}
