package testutil

import (
	"context"

	"github.com/pwojcik/flashgen-api/openrouter"
	"github.com/stretchr/testify/mock"
)

// MockChatClient is a mock for generation.ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) SendChatMessage(ctx context.Context, systemMessage, userMessage string) (*openrouter.ChatResponse, error) {
	args := m.Called(ctx, systemMessage, userMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openrouter.ChatResponse), args.Error(1)
}
