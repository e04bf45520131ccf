// Package openrouter implements the chat-completion client used for flashcard
// generation. It enforces outbound request spacing, a per-attempt timeout, and
// retries transient upstream failures with exponential backoff.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pwojcik/flashgen-api/errs"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1"
	defaultModel          = "openai/gpt-4o-mini"
	defaultRequestTimeout = 30 * time.Second
	defaultRateLimitDelay = 500 * time.Millisecond
	defaultMaxRetries     = 3

	baseBackoff = time.Second
	maxBackoff  = 10 * time.Second
)

// ModelParameters are forwarded verbatim in the completion payload.
type ModelParameters struct {
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// Config configures a Client. Zero values fall back to defaults; only APIKey
// is required.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	RequestTimeout  time.Duration
	RateLimitDelay  time.Duration
	MaxRetries      int
	ModelParameters *ModelParameters
}

// Client calls the OpenRouter chat-completion endpoint. Calls are sequential
// from the caller's perspective; the limiter serializes concurrent callers so
// two requests are never spaced closer than RateLimitDelay.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	params     ModelParameters
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger

	// backoff base, shortened in tests
	baseBackoff time.Duration
}

// NewClient validates the configuration and builds a client. A missing API key
// fails immediately.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &errs.ConfigurationError{Message: "OpenRouter API key is required"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = defaultRateLimitDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	params := ModelParameters{Temperature: 0.7, MaxTokens: 1000, TopP: 1}
	if cfg.ModelParameters != nil {
		params = *cfg.ModelParameters
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		params:      params,
		timeout:     cfg.RequestTimeout,
		maxRetries:  cfg.MaxRetries,
		httpClient:  &http.Client{},
		limiter:     rate.NewLimiter(rate.Every(cfg.RateLimitDelay), 1),
		log:         log,
		baseBackoff: baseBackoff,
	}, nil
}

// SendChatMessage sends a system and user message pair and returns the parsed,
// validated flashcard payload. Transient upstream failures (429, 5xx, timeout)
// are retried with exponential backoff up to MaxRetries; schema violations are
// never retried.
func (c *Client) SendChatMessage(ctx context.Context, systemMessage, userMessage string) (*ChatResponse, error) {
	if systemMessage == "" {
		return nil, errs.NewValidation("systemMessage", "must not be empty")
	}
	if userMessage == "" {
		return nil, errs.NewValidation("userMessage", "must not be empty")
	}

	payload := apiRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: userMessage},
		},
		ModelParameters: c.params,
		ResponseFormat:  &responseFormat{Type: "json_object"},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff << (attempt - 1)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			c.log.Warn("retrying OpenRouter request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doRequest(ctx, payload)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, payload apiRequest) (*ChatResponse, error) {
	// Outbound spacing gate
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// Parent context cancelled; do not retry.
			return nil, ctx.Err()
		}
		// Timeout or transport failure
		return nil, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &retryableError{err: &errs.APIError{Status: resp.StatusCode, Body: string(body)}}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errs.APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return parseChatResponse(body)
}

// parseChatResponse validates the outer envelope, extracts the first choice's
// content and parses it as the expected flashcard payload. Any violation fails
// with a ValidationError naming the offending field or index; malformed
// entries are never dropped silently.
func parseChatResponse(body []byte) (*ChatResponse, error) {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errs.NewValidation("response", fmt.Sprintf("failed to parse API response: %v", err))
	}
	if len(envelope.Choices) == 0 {
		return nil, errs.NewValidation("choices", "no choices in API response")
	}
	content := envelope.Choices[0].Message.Content
	if content == "" {
		return nil, errs.NewValidation("choices[0].message.content", "no content in API response")
	}

	var parsed struct {
		Answer     []Flashcard `json:"answer"`
		Confidence *float64    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, errs.NewValidation("content", fmt.Sprintf("failed to parse response content as JSON: %v", err))
	}
	if parsed.Answer == nil {
		return nil, errs.NewValidation("answer", `response content missing required "answer" array`)
	}
	if parsed.Confidence == nil {
		return nil, errs.NewValidation("confidence", `response content missing required "confidence" number`)
	}
	for i, card := range parsed.Answer {
		if card.Front == "" {
			return nil, errs.NewValidation(fmt.Sprintf("answer[%d].front", i), `missing required "front" string`)
		}
		if card.Back == "" {
			return nil, errs.NewValidation(fmt.Sprintf("answer[%d].back", i), `missing required "back" string`)
		}
	}

	return &ChatResponse{Answer: parsed.Answer, Confidence: *parsed.Confidence}, nil
}

// retryableError marks transient failures worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
